// diagtomodel-train: single-process trainer for the bundled model definitions.
//
// Usage:
//
//	diagtomodel-train --model=lenet5 --epochs=5 --lr=0.01 --samples=100
package main

import (
	"flag"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"diagtomodel/models"
	"diagtomodel/nn"
	"diagtomodel/tensor"
	"diagtomodel/utils"
)

var (
	modelName    = flag.String("model", "lenet5", "Model to train (see models.Names)")
	epochs       = flag.Int("epochs", 5, "Number of training epochs")
	learningRate = flag.Float64("lr", 0.01, "Learning rate")
	samples      = flag.Int("samples", 100, "Number of synthetic samples")
	seed         = flag.Int64("seed", 42, "Random seed")
	configFile   = flag.String("config", "", "YAML training config (overrides flags)")
	outputFile   = flag.String("output", "", "Output weights file (JSON)")
	verbose      = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	cfg := utils.TrainConfig{
		Model:        *modelName,
		Epochs:       *epochs,
		LearningRate: *learningRate,
		Samples:      *samples,
		Seed:         *seed,
		WeightsFile:  *outputFile,
	}
	if *configFile != "" {
		loaded, err := utils.LoadTrainConfig(*configFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load config")
		}
		cfg = *loaded
	}
	if err := utils.ValidateTrainConfig(&cfg, models.Names()); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.WithFields(log.Fields{
		"model":   cfg.Model,
		"epochs":  cfg.Epochs,
		"lr":      cfg.LearningRate,
		"samples": cfg.Samples,
		"seed":    cfg.Seed,
	}).Info("starting training")

	stats := &utils.TimingStats{}
	totalStart := time.Now()

	initStart := time.Now()
	model, err := models.Build(cfg.Model)
	if err != nil {
		log.WithError(err).Fatal("failed to build model")
	}
	if err := model.Compile(cfg.LearningRate); err != nil {
		log.WithError(err).Fatal("failed to compile model")
	}
	model.InitWeights(cfg.Seed)
	model.Stats = stats
	stats.ModelInitTime = time.Since(initStart)
	log.WithField("params", model.Net.Params()).Info("model ready")

	dataStart := time.Now()
	inputs, labels := generateData(model, cfg.Samples, cfg.Seed)
	stats.DataGenTime = time.Since(dataStart)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		epochStart := time.Now()
		epochLoss := 0.0
		for i := range inputs {
			loss, err := model.TrainStep(inputs[i], labels[i])
			if err != nil {
				log.WithError(err).WithField("sample", i).Fatal("train step failed")
			}
			epochLoss += loss
		}
		log.WithFields(log.Fields{
			"epoch": epoch + 1,
			"loss":  epochLoss / float64(len(inputs)),
			"took":  time.Since(epochStart).Round(time.Millisecond).String(),
		}).Info("epoch complete")
	}

	stats.TotalTime = time.Since(totalStart)
	log.WithField("total", stats.TotalTime.Round(time.Millisecond).String()).Info("training complete")
	utils.PrintTimingStats(stats, cfg.Epochs*len(inputs))

	if cfg.WeightsFile != "" {
		if err := utils.SaveWeights(cfg.WeightsFile, model.ExportWeights()); err != nil {
			log.WithError(err).Fatal("failed to save weights")
		}
		log.WithField("file", cfg.WeightsFile).Info("weights saved")
	}
}

// generateData produces random inputs with random one-hot labels. Good enough
// to exercise the full training path without a dataset.
func generateData(m *nn.Model, n int, seed int64) ([]*tensor.Tensor, []*tensor.Tensor) {
	rng := rand.New(rand.NewSource(seed))
	inputs := make([]*tensor.Tensor, n)
	labels := make([]*tensor.Tensor, n)
	for i := 0; i < n; i++ {
		in := tensor.New(m.InputShape...)
		for j := range in.Data {
			in.Data[j] = rng.NormFloat64()
		}
		label := tensor.New(m.Classes)
		label.Data[rng.Intn(m.Classes)] = 1
		inputs[i] = in
		labels[i] = label
	}
	return inputs, labels
}
