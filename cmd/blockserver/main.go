package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/block-engine/internal/api"
	"github.com/annel0/block-engine/internal/assets"
	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/config"
	"github.com/annel0/block-engine/internal/eventbus"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/metrics"
	"github.com/annel0/block-engine/internal/observability"
	"github.com/annel0/block-engine/internal/storage"
	"github.com/annel0/block-engine/internal/vec"
	"github.com/annel0/block-engine/internal/world"
)

const tickInterval = 50 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV BLOCK_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger("blockserver"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	level := logging.ParseLevel(cfg.LogLevel)
	for _, name := range []string{"registry", "support", "storage", "world", "assets", "api", "eventbus"} {
		logging.GetComponentLogger(name).SetLevels(level, logging.TRACE)
	}

	logging.Info("🧱 Запуск сервера блоков (authoritative=%v, storage=%s)", cfg.Registry.Authoritative, cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === АССЕТЫ ===
	src, err := assets.NewYAMLSource(cfg.Registry.AssetsDir, logging.GetComponentLogger("assets"))
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки ассетов %s: %v", cfg.Registry.AssetsDir, err)
	}
	for _, e := range src.Errors() {
		logging.Warn("ассет пропущен: %v", e)
	}

	// === ХРАНИЛИЩЕ ТАБЛИЦЫ ID ===
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	persisted, err := store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoMapping):
		logging.Info("Сохранённой таблицы id нет, реестр стартует с чистого листа")
		persisted = &block.PersistedMapping{}
	case err != nil:
		log.Fatalf("❌ Ошибка чтения таблицы id: %v", err)
	}

	// === РЕЕСТР ===
	collector := metrics.New(nil)
	registry := block.NewRegistry(block.Options{
		Authoritative: cfg.Registry.Authoritative,
		Loader:        block.NewFamilyLoader(src, logging.GetRegistryLogger()),
		Observer:      collector,
	})
	stats := registry.Initialise(ctx, persisted.Families, persisted.IDs)
	collector.Sync(registry.Snapshot())
	if len(stats.Skipped) > 0 {
		logging.Warn("Недоступные семейства: %v", stats.Skipped)
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		js, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, time.Duration(cfg.EventBus.Retention)*time.Hour)
		if err != nil {
			logging.Warn("NATS недоступен (%v), используется in-memory шина", err)
		} else {
			bus = js
		}
	}
	if bus == nil {
		bus = eventbus.NewMemoryBus(cfg.EventBus.Buffer)
	}
	if _, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("eventbus")); err != nil {
		logging.Warn("Логирование шины не запущено: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus, nil)
	busMetrics.Start(10 * time.Second)

	// === МИР ===
	w := world.NewStore(world.Options{
		Registry:        registry,
		ChunkSize:       cfg.World.ChunkSize,
		Bus:             bus,
		Source:          "blockserver",
		SupportObserver: collector,
	})
	chunks := w.LoadArea(vec.Vec3{}, cfg.World.LoadedRadius)
	logging.Info("🌍 Загружено чанков: %d", chunks)

	ticker := time.NewTicker(tickInterval)
	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				w.Tick(now)
			}
		}
	}()

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:     cfg.Server.GetRESTPort(),
		Registry: registry,
		World:    w,
		Bus:      bus,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
			stop()
		}
	}()

	logging.Info("✅ Сервер блоков запущен: %d семейств, %d блоков", stats.Registered, registry.Snapshot().BlockCount())

	<-ctx.Done()
	logging.Info("📡 Получен сигнал завершения, останавливаем сервисы...")

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	ticker.Stop()
	<-tickDone
	busMetrics.Stop()

	if registry.IsAuthoritative() {
		if err := store.Save(shutdownCtx, registry.Export()); err != nil {
			logging.Error("❌ Не удалось сохранить таблицу id: %v", err)
		} else {
			logging.Info("💾 Таблица id сохранена (%d блоков)", len(registry.Mapping()))
		}
	}
	if err := store.Close(); err != nil {
		logging.Error("Ошибка закрытия хранилища: %v", err)
	}
	if err := bus.Close(); err != nil {
		logging.Error("Ошибка закрытия шины: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки OpenTelemetry: %v", err)
	}
	logging.Info("👋 Сервер блоков остановлен")
}
