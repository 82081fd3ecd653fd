package server

import (
	"context"
	"fmt"
	"time"

	accountshandler "hotelbooking/internal/accounts/handler"
	accountsrepository "hotelbooking/internal/accounts/repository"
	accountsservice "hotelbooking/internal/accounts/service"
	accountsvalidator "hotelbooking/internal/accounts/validator"
	adminhandler "hotelbooking/internal/admin/handler"
	bookingshandler "hotelbooking/internal/bookings/handler"
	bookingsrepository "hotelbooking/internal/bookings/repository"
	bookingsservice "hotelbooking/internal/bookings/service"
	bookingsvalidator "hotelbooking/internal/bookings/validator"
	"hotelbooking/internal/events"
	roomshandler "hotelbooking/internal/rooms/handler"
	roomsrepository "hotelbooking/internal/rooms/repository"
	roomsservice "hotelbooking/internal/rooms/service"
	roomsvalidator "hotelbooking/internal/rooms/validator"
	sitehandler "hotelbooking/internal/site/handler"
	siteservice "hotelbooking/internal/site/service"
	"hotelbooking/internal/view"
	"hotelbooking/pkg/authz"
	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/container"
	"hotelbooking/pkg/kafka"
	kafka_config "hotelbooking/pkg/kafka/config"
	kafka_middleware "hotelbooking/pkg/kafka/middleware"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/middleware"
	"hotelbooking/pkg/render"
	"hotelbooking/pkg/session"
)

const sessionSweepInterval = 5 * time.Minute

// register binds every repository, service and controller. Nothing is
// built here; factories run on first resolution.
func (s *Server) register(c *container.Container) {
	cfg, b := s.cfg, s.backend

	c.Instance(KeyConfig, cfg)
	c.Instance(KeyLogger, cfg.Log)
	c.Instance(KeyClock, s.clock)

	s.registerRepositories(c, cfg, b)
	s.registerServices(c, cfg)
	s.registerWeb(c, cfg)
	registerControllers(c)
}

func (s *Server) registerRepositories(c *container.Container, cfg *config.Config, b *Backend) {
	container.Provide(c, KeyRoomRepository, func(*container.Container) (roomsrepository.RoomRepository, error) {
		if b.MongoDB != nil {
			return roomsrepository.NewMongoRoomRepository(b.MongoDB, cfg), nil
		}
		return roomsrepository.NewSQLiteRoomRepository(b.SQLite), nil
	})
	container.Provide(c, KeyRoomTypeRepository, func(*container.Container) (roomsrepository.RoomTypeRepository, error) {
		if b.MongoDB != nil {
			return roomsrepository.NewMongoRoomTypeRepository(b.MongoDB, cfg), nil
		}
		return roomsrepository.NewSQLiteRoomTypeRepository(b.SQLite), nil
	})
	container.Provide(c, KeyRoomImageRepository, func(*container.Container) (roomsrepository.RoomImageRepository, error) {
		if b.MongoDB != nil {
			return roomsrepository.NewMongoRoomImageRepository(b.MongoDB, cfg), nil
		}
		return roomsrepository.NewSQLiteRoomImageRepository(b.SQLite), nil
	})
	container.Provide(c, KeyBookingRepository, func(*container.Container) (bookingsrepository.BookingRepository, error) {
		if b.MongoDB != nil {
			return bookingsrepository.NewMongoBookingRepository(b.MongoDB, cfg), nil
		}
		return bookingsrepository.NewSQLiteBookingRepository(b.SQLite), nil
	})
	container.Provide(c, KeyUserRepository, func(*container.Container) (accountsrepository.UserRepository, error) {
		if b.MongoDB != nil {
			return accountsrepository.NewMongoUserRepository(b.MongoDB, cfg), nil
		}
		return accountsrepository.NewSQLiteUserRepository(b.SQLite), nil
	})
	container.Provide(c, KeyAdminRepository, func(*container.Container) (accountsrepository.AdminRepository, error) {
		if b.MongoDB != nil {
			return accountsrepository.NewMongoAdminRepository(b.MongoDB, cfg), nil
		}
		return accountsrepository.NewSQLiteAdminRepository(b.SQLite), nil
	})

	// SQLite serializes writers itself, so an in-process lock is enough to
	// order the check and the insert. Mongo needs a lock every web process
	// can see.
	container.Provide(c, KeyBookingLocker, func(c *container.Container) (bookingsservice.RoomLocker, error) {
		if b.MongoDB == nil {
			return bookingsservice.NewMemoryLocker(), nil
		}
		clk, err := container.Resolve[clock.Clock](c, KeyClock)
		if err != nil {
			return nil, err
		}
		locks := bookingsrepository.NewMongoBookingLockRepository(b.MongoDB, cfg)
		return bookingsservice.NewMongoLocker(locks, cfg.BookingLockTTL, clk, cfg.Log), nil
	})
}

func (s *Server) registerServices(c *container.Container, cfg *config.Config) {
	log := cfg.Log

	container.Provide(c, KeyRoomValidator, func(*container.Container) (*roomsvalidator.RoomValidator, error) {
		return roomsvalidator.NewRoomValidator(log), nil
	})
	container.Provide(c, KeyBookingValidator, func(*container.Container) (*bookingsvalidator.BookingValidator, error) {
		return bookingsvalidator.NewBookingValidator(s.clock, cfg.MaxStayNights, log), nil
	})
	container.Provide(c, KeyAccountValidator, func(*container.Container) (*accountsvalidator.AccountValidator, error) {
		return accountsvalidator.NewAccountValidator(log), nil
	})

	container.Provide(c, KeyPublisher, s.newPublisher)
	container.Provide(c, KeyAuthorizer, func(*container.Container) (*authz.Authorizer, error) {
		return authz.New(log)
	})

	container.Provide(c, KeyRoomService, func(c *container.Container) (roomsservice.RoomService, error) {
		rooms, err := container.Resolve[roomsrepository.RoomRepository](c, KeyRoomRepository)
		if err != nil {
			return nil, err
		}
		types, err := container.Resolve[roomsrepository.RoomTypeRepository](c, KeyRoomTypeRepository)
		if err != nil {
			return nil, err
		}
		images, err := container.Resolve[roomsrepository.RoomImageRepository](c, KeyRoomImageRepository)
		if err != nil {
			return nil, err
		}
		bookings, err := container.Resolve[bookingsrepository.BookingRepository](c, KeyBookingRepository)
		if err != nil {
			return nil, err
		}
		v, err := container.Resolve[*roomsvalidator.RoomValidator](c, KeyRoomValidator)
		if err != nil {
			return nil, err
		}
		return roomsservice.NewRoomService(rooms, types, images, bookings, v, s.clock, log), nil
	})

	container.Provide(c, KeyBookingService, func(c *container.Container) (bookingsservice.BookingService, error) {
		repo, err := container.Resolve[bookingsrepository.BookingRepository](c, KeyBookingRepository)
		if err != nil {
			return nil, err
		}
		rooms, err := container.Resolve[roomsrepository.RoomRepository](c, KeyRoomRepository)
		if err != nil {
			return nil, err
		}
		locker, err := container.Resolve[bookingsservice.RoomLocker](c, KeyBookingLocker)
		if err != nil {
			return nil, err
		}
		v, err := container.Resolve[*bookingsvalidator.BookingValidator](c, KeyBookingValidator)
		if err != nil {
			return nil, err
		}
		publisher, err := container.Resolve[events.Publisher](c, KeyPublisher)
		if err != nil {
			return nil, err
		}
		return bookingsservice.NewBookingService(repo, rooms, locker, v, publisher, s.clock, log), nil
	})

	container.Provide(c, KeyAccountService, func(c *container.Container) (accountsservice.AccountService, error) {
		users, err := container.Resolve[accountsrepository.UserRepository](c, KeyUserRepository)
		if err != nil {
			return nil, err
		}
		admins, err := container.Resolve[accountsrepository.AdminRepository](c, KeyAdminRepository)
		if err != nil {
			return nil, err
		}
		v, err := container.Resolve[*accountsvalidator.AccountValidator](c, KeyAccountValidator)
		if err != nil {
			return nil, err
		}
		return accountsservice.NewAccountService(users, admins, v, s.bcryptCost, log)
	})

	container.Provide(c, KeyContactService, func(c *container.Container) (siteservice.ContactService, error) {
		publisher, err := container.Resolve[events.Publisher](c, KeyPublisher)
		if err != nil {
			return nil, err
		}
		return siteservice.NewContactService(publisher, s.clock, log), nil
	})
}

func (s *Server) registerWeb(c *container.Container, cfg *config.Config) {
	log := cfg.Log

	container.Provide(c, KeyRenderer, func(*container.Container) (*render.Renderer, error) {
		return render.New(s.templates, render.WithReload(s.reloadTemplates)), nil
	})
	container.Provide(c, KeyResponder, func(c *container.Container) (*view.Responder, error) {
		renderer, err := container.Resolve[*render.Renderer](c, KeyRenderer)
		if err != nil {
			return nil, err
		}
		return view.NewResponder(renderer, log, cfg.IsDevelopment()), nil
	})

	container.Provide(c, KeySessionStore, func(*container.Container) (session.Store, error) {
		if cfg.SessionStore == config.SessionStoreRedis {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return nil, err
			}
			store := session.NewRedisStore(client)
			s.addProbe(store.Ping)
			s.onClose(func(context.Context) error { return client.Close() })
			log.Info("Sessions stored in Redis", "addr", cfg.RedisAddr)
			return store, nil
		}
		store := session.NewMemoryStore(s.clock)
		store.StartCleanup(sessionSweepInterval)
		s.onClose(func(context.Context) error {
			store.Stop()
			return nil
		})
		return store, nil
	})
	container.Provide(c, KeySessions, func(c *container.Container) (*session.Manager, error) {
		store, err := container.Resolve[session.Store](c, KeySessionStore)
		if err != nil {
			return nil, err
		}
		return session.NewManager(store, session.Config{
			CookieName:  cfg.SessionCookieName,
			HashKey:     []byte(cfg.SessionHashKey),
			BlockKey:    []byte(cfg.SessionBlockKey),
			IdleTimeout: cfg.SessionIdleTimeout,
			Lifetime:    cfg.SessionLifetime,
			Secure:      cfg.SessionSecureCookie,
		}, s.clock, log), nil
	})

	container.Provide(c, KeyRateLimiter, func(*container.Container) (*middleware.IPRateLimiter, error) {
		limiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, cfg.TrustProxy, log)
		s.onClose(func(context.Context) error {
			limiter.Stop()
			return nil
		})
		return limiter, nil
	})
}

func registerControllers(c *container.Container) {
	container.ProvideTransient(c, KeySiteController, func(c *container.Container, _ container.Params) (*sitehandler.SiteHandler, error) {
		rooms, err := container.Resolve[roomsservice.RoomService](c, KeyRoomService)
		if err != nil {
			return nil, err
		}
		contact, err := container.Resolve[siteservice.ContactService](c, KeyContactService)
		if err != nil {
			return nil, err
		}
		v, log, err := webDeps(c)
		if err != nil {
			return nil, err
		}
		return sitehandler.NewSiteHandler(rooms, contact, v, log), nil
	})

	container.ProvideTransient(c, KeyRoomController, func(c *container.Container, _ container.Params) (*roomshandler.RoomHandler, error) {
		rooms, err := container.Resolve[roomsservice.RoomService](c, KeyRoomService)
		if err != nil {
			return nil, err
		}
		v, log, err := webDeps(c)
		if err != nil {
			return nil, err
		}
		return roomshandler.NewRoomHandler(rooms, v, log), nil
	})

	container.ProvideTransient(c, KeyBookingController, func(c *container.Container, _ container.Params) (*bookingshandler.BookingHandler, error) {
		bookings, err := container.Resolve[bookingsservice.BookingService](c, KeyBookingService)
		if err != nil {
			return nil, err
		}
		rooms, err := container.Resolve[roomsservice.RoomService](c, KeyRoomService)
		if err != nil {
			return nil, err
		}
		v, log, err := webDeps(c)
		if err != nil {
			return nil, err
		}
		return bookingshandler.NewBookingHandler(bookings, rooms, v, log), nil
	})

	container.ProvideTransient(c, KeyAccountController, func(c *container.Container, _ container.Params) (*accountshandler.AccountHandler, error) {
		accounts, err := container.Resolve[accountsservice.AccountService](c, KeyAccountService)
		if err != nil {
			return nil, err
		}
		bookings, err := container.Resolve[bookingsservice.BookingService](c, KeyBookingService)
		if err != nil {
			return nil, err
		}
		v, log, err := webDeps(c)
		if err != nil {
			return nil, err
		}
		return accountshandler.NewAccountHandler(accounts, bookings, v, log), nil
	})

	container.ProvideTransient(c, KeyAdminController, func(c *container.Container, _ container.Params) (*adminhandler.AdminHandler, error) {
		accounts, err := container.Resolve[accountsservice.AccountService](c, KeyAccountService)
		if err != nil {
			return nil, err
		}
		rooms, err := container.Resolve[roomsservice.RoomService](c, KeyRoomService)
		if err != nil {
			return nil, err
		}
		bookings, err := container.Resolve[bookingsservice.BookingService](c, KeyBookingService)
		if err != nil {
			return nil, err
		}
		authorizer, err := container.Resolve[*authz.Authorizer](c, KeyAuthorizer)
		if err != nil {
			return nil, err
		}
		v, log, err := webDeps(c)
		if err != nil {
			return nil, err
		}
		return adminhandler.NewAdminHandler(accounts, rooms, bookings, authorizer, v, log), nil
	})
}

func webDeps(c *container.Container) (*view.Responder, *logger.Logger, error) {
	v, err := container.Resolve[*view.Responder](c, KeyResponder)
	if err != nil {
		return nil, nil, err
	}
	log, err := container.Resolve[*logger.Logger](c, KeyLogger)
	if err != nil {
		return nil, nil, err
	}
	return v, log, nil
}

// newPublisher sends events to Kafka when it is enabled and to the log
// otherwise.
func (s *Server) newPublisher(*container.Container) (events.Publisher, error) {
	cfg, log := s.cfg, s.cfg.Log
	if !cfg.KafkaEnabled {
		return events.NewLogPublisher(log), nil
	}

	kcfg, err := kafka_config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid kafka configuration: %w", err)
	}
	kcfg.LogConfiguration(log)
	metrics := kafka_middleware.NewMetrics()

	bookings, err := s.newProducer(kcfg, cfg.KafkaBookingTopic, metrics)
	if err != nil {
		return nil, err
	}
	var contact events.MessagePublisher
	if cfg.KafkaContactTopic != "" {
		producer, err := s.newProducer(kcfg, cfg.KafkaContactTopic, metrics)
		if err != nil {
			return nil, err
		}
		contact = producer
	}

	s.onClose(func(context.Context) error {
		metrics.Log(log)
		return nil
	})
	return events.NewKafkaPublisher(bookings, contact, log), nil
}

func (s *Server) newProducer(kcfg *kafka_config.Config, topic string, metrics *kafka_middleware.Metrics) (*kafka.Producer, error) {
	producer, err := kafka.NewProducer(kcfg, topic, s.cfg.KafkaDLQTopic, s.cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer for %s: %w", topic, err)
	}
	producer.Use(metrics.ProducerMiddleware())
	if kcfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(s.cfg.Log))
	}
	s.onClose(func(context.Context) error { return producer.Close() })
	return producer, nil
}
