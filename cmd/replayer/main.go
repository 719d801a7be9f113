package main

import (
	"os"
	"os/signal"
	"syscall"

	"barreplay/config"
	"barreplay/internal/indicator"
	"barreplay/internal/replay"
	"barreplay/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// replay engine
	engine, err := replay.NewEngine(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize engine", zap.Error(err))
	}

	engine.AddIndicator(indicator.NewSimpleMovingAverage(5, "close"))
	engine.AddIndicator(indicator.NewSimpleMovingAverage(10, "close"))

	engine.Connect()

	// Drain processed bars so the event queue never fills up
	go func() {
		for pb := range engine.Events() {
			log.Debug("bar event",
				zap.Time("ts_event", pb.Bar.Time()),
				zap.String("symbol", pb.Bar.Symbol),
				zap.Float64("close", pb.Bar.ClosePrice()),
				zap.Any("indicators", pb.Indicators))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-engine.Done():
		if err := engine.Err(); err != nil {
			log.Error("replay failed", zap.Error(err))
		} else {
			log.Info("replay complete", zap.Int("bars", engine.Store().CountAll()))
		}
	case s := <-sig:
		log.Info("received signal", zap.String("signal", s.String()))
	}

	engine.Stop(true)
}
