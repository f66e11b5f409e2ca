package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"recordbase/internal/config"
	"recordbase/internal/record"
	"recordbase/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	conn := store.NewConn(cfg.Database.Path, logger)
	defer conn.Close()

	note := &record.Descriptor{
		Name: "Note",
		Fields: []record.Field{
			{Name: "title", Type: record.KindString},
			{Name: "created", Type: record.KindDate},
		},
		Normalizers: []record.Normalizer{trimTitle},
	}

	ctx := context.Background()
	mapper, err := record.NewMapper(ctx, conn, note,
		record.WithIDField(cfg.Database.IDField),
		record.WithLogger(logger))
	if err != nil {
		return err
	}

	r, err := mapper.New(map[string]any{
		"title":   "  shopping list ",
		"created": "2026-08-28",
	})
	if err != nil {
		return err
	}
	if err := r.Save(ctx); err != nil {
		return err
	}
	id, _ := r.ID()
	logger.Info("saved note", "id", id, "table", mapper.TableName())

	loaded, err := mapper.Load(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(loaded)

	latest, err := record.NewCollection(mapper).GetMostRecent(ctx)
	if err != nil {
		return err
	}
	if latest != nil {
		fmt.Println("most recent:", latest)
	}
	return nil
}

// trimTitle strips surrounding whitespace from the title field.
func trimTitle(r *record.Record) error {
	v, ok := r.Get("title")
	if !ok {
		return nil
	}
	if s, ok := v.(string); ok {
		r.Set("title", strings.TrimSpace(s))
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
