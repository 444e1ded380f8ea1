// Package models contains ready-to-use network definitions. Each constructor
// returns an uncompiled nn.Model whose layer stack mirrors the published
// architecture it is named after.
package models

import (
	"fmt"
	"sort"

	"diagtomodel/nn"
	"diagtomodel/nn/layers"
)

// registry maps model names to their constructors.
var registry = map[string]func() *nn.Model{
	"lenet5":   NewLeNet5,
	"alexnet":  NewAlexNet,
	"parallel": NewParallelNet,
	"addnet":   NewAddNet,
	"xception": NewXception,
}

// Build returns the named model, or an error if the name is unknown.
func Build(name string) (*nn.Model, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (known: %v)", name, Names())
	}
	return ctor(), nil
}

// Names returns the registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mustActivation builds an activation layer for a known-good name.
func mustActivation(name string) *layers.Activation {
	act, err := layers.NewActivation(name)
	if err != nil {
		panic(err)
	}
	return act
}

// mustDropout builds a dropout layer for a known-good ratio.
func mustDropout(ratio float64) *layers.Dropout {
	d, err := layers.NewDropout(ratio)
	if err != nil {
		panic(err)
	}
	return d
}
