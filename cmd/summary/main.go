package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"diagtomodel/models"
)

func main() {
	modelName := flag.String("model", "all", "model to summarize, or 'all'")
	flag.Parse()

	names := models.Names()
	if *modelName != "all" {
		names = []string{*modelName}
	}

	for i, name := range names {
		m, err := models.Build(name)
		if err != nil {
			log.WithError(err).Fatal("unknown model")
		}
		if i > 0 {
			fmt.Println()
		}
		if err := m.Summary(os.Stdout); err != nil {
			log.WithError(err).WithField("model", name).Fatal("summary failed")
		}
	}
}
