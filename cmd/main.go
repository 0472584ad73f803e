package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_appointment"
	commitAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/commit_appointment"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	holdSeatsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/hold_seats"
	listSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_slots"
	releaseHoldHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/release_hold"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/holdstore"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	formRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/form"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/workflow"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	"github.com/m04kA/SMC-AppointmentService/internal/service/holds"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reservation"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	slotsService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
	cancelAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
	commitAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/commit_appointment"
	holdSeatsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
	listSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/list_slots"
	"github.com/m04kA/SMC-AppointmentService/internal/worker/holdsweeper"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

// Хранилища, общие для postgres и memory
type (
	formStore interface {
		GetByID(ctx context.Context, id int64) (*domain.FormRules, error)
		GetWeekDefinitions(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error)
	}

	slotStore interface {
		InsertOrGet(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
		GetByKey(ctx context.Context, formID int64, start time.Time) (*domain.Slot, error)
		GetByID(ctx context.Context, id int64) (*domain.Slot, error)
		GetByIDForUpdate(ctx context.Context, id int64) (*domain.Slot, error)
		GetByFormAndRange(ctx context.Context, formID int64, from, to time.Time) ([]*domain.Slot, error)
		UpdateCounters(ctx context.Context, slot *domain.Slot) error
	}

	appointmentStore interface {
		Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
		GetByReference(ctx context.Context, reference string) (*domain.Appointment, error)
		FindActiveByIdentity(ctx context.Context, formID int64, identity domain.Identity) ([]*domain.Appointment, error)
		LockIdentity(ctx context.Context, formID int64, identity domain.Identity) error
		MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) error
	}

	txManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}

	notifier interface {
		AppointmentCommitted(ctx context.Context, a *domain.Appointment) error
		AppointmentCancelled(ctx context.Context, a *domain.Appointment, idAction int) error
	}
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml")

	location := cfg.App.Location()
	log.Info("Slots are built in timezone %s", location)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Инициализируем хранилища
	var (
		forms        formStore
		slots        slotStore
		appointments appointmentStore
		txMgr        txManager
	)

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		// Проверяем соединение
		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		// Без метрик обертка работает как обычный *sql.DB
		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)

		forms = formRepo.NewRepository(wrappedDB)
		slots = slotRepo.NewRepository(wrappedDB)
		appointments = appointmentRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)

	case config.StorageDriverMemory:
		memForms := memory.NewFormRepository()
		if cfg.Storage.SeedFile != "" {
			n, err := memory.LoadSeed(cfg.Storage.SeedFile, memForms, location)
			if err != nil {
				log.Fatal("Failed to load forms seed: %v", err)
			}
			log.Info("Loaded %d forms from %s", n, cfg.Storage.SeedFile)
		}

		forms = memForms
		slots = memory.NewSlotRepository()
		appointments = memory.NewAppointmentRepository()
		txMgr = txmanager.NewNoop()
		log.Warn("In-memory storage: appointments are lost on restart")
	}

	// Инициализируем хранилище удержаний
	var holdStore holds.HoldStore
	switch cfg.Holds.Store {
	case config.HoldStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: time.Duration(cfg.Redis.DialTimeout) * time.Second,
		})
		defer client.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.DialTimeout)*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr(), err)
		}
		pingCancel()

		holdStore = holdstore.NewRedis(client, cfg.Redis.KeyPrefix)
		log.Info("Holds are stored in redis (addr=%s, prefix=%s)", cfg.Redis.Addr(), cfg.Redis.KeyPrefix)

	case config.HoldStoreMemory:
		holdStore = holdstore.NewMemory()
		log.Info("Holds are stored in memory")
	}

	// Инициализируем публикацию событий в workflow
	var workflowNotifier notifier = workflow.NewNoop()
	if cfg.Workflow.Enabled {
		publisher, err := workflow.NewPublisher(
			cfg.Workflow.URL,
			cfg.Workflow.Exchange,
			cfg.Workflow.Queue,
			time.Duration(cfg.Workflow.Timeout)*time.Second,
			log,
		)
		if err != nil {
			log.Fatal("Failed to connect to workflow broker: %v", err)
		}
		defer publisher.Close()

		workflowNotifier = publisher
		log.Info("Workflow events are published to queue %s", cfg.Workflow.Queue)
	}

	// Инициализируем сервисы
	scheduleSvc := scheduleService.NewService(forms, log)
	slotsSvc := slotsService.NewService(slots, log)
	coordinator := reservation.NewCoordinator(slots, txMgr, metricsCollector, log)
	holdManager := holds.NewManager(
		holdStore,
		coordinator,
		metricsCollector,
		log,
		holds.WithBaseTTL(cfg.Holds.HoldBaseTTL()),
		holds.WithPerSeatTTL(cfg.Holds.HoldPerSeatTTL()),
	)
	appointmentSvc := appointmentsService.NewService(appointments, log)

	// Инициализируем use cases
	listSlotsUseCase := listSlotsUC.NewUseCase(
		forms,
		scheduleSvc,
		slotsSvc,
		location,
		log,
	)

	holdSeatsUseCase := holdSeatsUC.NewUseCase(
		forms,
		scheduleSvc,
		slotsSvc,
		coordinator,
		holdManager,
		location,
		log,
	)

	commitAppointmentUseCase := commitAppointmentUC.NewUseCase(
		holdManager,
		coordinator,
		forms,
		slots,
		appointments,
		workflowNotifier,
		metricsCollector,
		location,
		log,
	)

	cancelAppointmentUseCase := cancelAppointmentUC.NewUseCase(
		appointments,
		coordinator,
		workflowNotifier,
		metricsCollector,
		log,
	)

	// Инициализируем handlers
	listSlots := listSlotsHandler.NewHandler(listSlotsUseCase, log)
	holdSeats := holdSeatsHandler.NewHandler(holdSeatsUseCase, log)
	releaseHold := releaseHoldHandler.NewHandler(holdManager, log)
	commitAppointment := commitAppointmentHandler.NewHandler(commitAppointmentUseCase, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(cancelAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)

	// Фоновые задачи останавливаются вместе с сервером
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Identity)

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Слоты ---
	// Календарь слотов формы
	api.HandleFunc("/forms/{formId}/slots", listSlots.Handle).Methods(http.MethodGet)

	// --- Удержания ---
	// Удержание мест (ограничено по частоте на сессию)
	var holdSeatsRoute http.Handler = http.HandlerFunc(holdSeats.Handle)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst,
			time.Duration(cfg.RateLimit.IdleTTL)*time.Second)
		go limiter.StartJanitor(bgCtx)
		holdSeatsRoute = limiter.Middleware(holdSeatsRoute)
		log.Info("Hold rate limit enabled (rps=%.2f, burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	api.Handle("/forms/{formId}/holds", holdSeatsRoute).Methods(http.MethodPost)

	// Отказ от удержания
	api.HandleFunc("/holds/{token}", releaseHold.Handle).Methods(http.MethodDelete)

	// --- Записи ---
	// Фиксация записи по удержанию
	api.HandleFunc("/holds/{token}/appointment", commitAppointment.Handle).Methods(http.MethodPost)

	// Получение записи по коду
	api.HandleFunc("/appointments/{reference}", getAppointment.Handle).Methods(http.MethodGet)

	// Отмена записи
	api.HandleFunc("/appointments/{reference}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// Запускаем освобождение истекших удержаний
	if cfg.Holds.SweeperEnabled {
		sweeper := holdsweeper.NewWorker(holdManager, time.Duration(cfg.Holds.SweepInterval)*time.Second, log)
		go sweeper.Start(bgCtx)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновые задачи и сбор метрик connection pool
	bgCancel()
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
