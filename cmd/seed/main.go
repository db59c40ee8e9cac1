package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"hqcatalog/internal/api"
	"hqcatalog/internal/catalog"
	"hqcatalog/internal/config"
	"hqcatalog/internal/logger"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	count := flag.Int("count", 0, "number of generated entries; 0 posts the sample dataset")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogJSON, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	entries := api.SampleEntries()
	if *count > 0 {
		entries = generate(*count, time.Now().Year())
	}

	client := api.NewClient(cfg.Backend, nil)
	if _, err := client.Health(ctx); err != nil {
		logrus.WithError(err).Fatalf("backend at %s is not reachable", client.BaseURL())
	}

	logrus.Infof("Posting %d entries to %s...", len(entries), client.BaseURL())
	bar := progressbar.Default(int64(len(entries)), "Seeding")
	failed := 0
	for _, e := range entries {
		e.ID = 0
		if _, err := client.Create(ctx, e); err != nil {
			if ctx.Err() != nil {
				break
			}
			failed++
			logrus.WithError(err).WithField("titulo", e.Titulo).Debug("create failed")
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	stats, err := client.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Warn("could not read statistics")
		return
	}
	logrus.WithFields(logrus.Fields{
		"created": len(entries) - failed,
		"failed":  failed,
		"total":   stats.TotalLivros,
	}).Info("seed finished")
}

var (
	series     = []string{"Sombra", "Guardião", "Tempestade", "Abismo", "Vigilante", "Horizonte", "Relíquia", "Eclipse", "Legado", "Fronteira"}
	subtitles  = []string{"Origens", "O Retorno", "Ano Um", "A Queda", "Renascimento", "Guerra Civil", "Último Ato", "Crise"}
	authors    = []string{"Ana Souza", "Bruno Lima", "Carla Mendes", "Diego Rocha", "Elisa Prado", "Fábio Nunes", "Gabriela Alves"}
	genres     = []string{"Super-herói", "Ficção científica", "Fantasia", "Terror", "Drama", "Aventura", "Policial"}
	publishers = []string{"DC Comics", "Marvel", "Image", "Dark Horse", "Panini", "Mythos", "Pipoca & Nanquim"}
)

// generate builds n entries with distinct titles.
func generate(n, currentYear int) []catalog.Entry {
	out := make([]catalog.Entry, 0, n)
	for i := 0; i < n; i++ {
		edition := 1 + rand.Intn(300)
		out = append(out, catalog.Entry{
			Titulo:       fmt.Sprintf("%s: %s #%d", series[rand.Intn(len(series))], subtitles[rand.Intn(len(subtitles))], i+1),
			Autor:        authors[rand.Intn(len(authors))],
			Ano:          1950 + rand.Intn(currentYear-1950+1),
			Genero:       genres[rand.Intn(len(genres))],
			Editora:      publishers[rand.Intn(len(publishers))],
			NumeroEdicao: &edition,
			Descricao:    "Edição gerada para testes de carga do catálogo.",
		})
	}
	return out
}
