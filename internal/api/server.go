package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/Males-For-Females-llc/dapps/internal/auth"
	"github.com/Males-For-Females-llc/dapps/internal/config"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/display"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
	"github.com/Males-For-Females-llc/dapps/internal/metrics"
)

type Router struct {
	Routes       []*echo.Route
	Root         *echo.Group
	Management   *echo.Group
	APIV1Auth    *echo.Group
	APIV1Session *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the
// components in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	Config  config.Server
	Clock   time2.Clock
	Metrics *metrics.Service
	JWT     *auth.JWTManager

	// 会话委托组件
	Keys      *keystore.Service
	Chain     chain.Client
	Backend   session.AuthorizationBackend
	Sessions  *session.Manager
	Formatter *display.BalanceFormatter
}

// newServerWithComponents is used by wire to initialize the server components.
// Components not listed here won't be handled by wire and should be initialized separately.
// Components which shouldn't be handled must be labeled `wire:"-"` in Server struct.
func newServerWithComponents(
	cfg config.Server,
	clock time2.Clock,
	metrics *metrics.Service,
	jwtManager *auth.JWTManager,
	keys *keystore.Service,
	chainClient chain.Client,
	backend session.AuthorizationBackend,
	sessions *session.Manager,
	formatter *display.BalanceFormatter,
) *Server {
	return &Server{
		Config:  cfg,
		Clock:   clock,
		Metrics: metrics,
		JWT:     jwtManager,

		Keys:      keys,
		Chain:     chainClient,
		Backend:   backend,
		Sessions:  sessions,
		Formatter: formatter,
	}
}

func NewServer(config config.Server) *Server {
	return &Server{
		Config: config,
	}
}

func (s *Server) Ready() bool {
	if s.Echo == nil || s.Router == nil {
		log.Debug().Msg("Server router is not initialized")
		return false
	}
	if s.Keys == nil || s.Chain == nil || s.Backend == nil || s.Sessions == nil {
		log.Debug().Msg("Server delegation components are not initialized")
		return false
	}
	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	log.Info().
		Str("listen_address", s.Config.Echo.ListenAddress).
		Str("mode", s.Config.Delegate.Mode).
		Str("program", s.Config.Delegate.TargetProgram).
		Msg("Starting delegation API server")

	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Sessions != nil {
		log.Debug().Msg("Closing session controllers")
		s.Sessions.Close()
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")
		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	return errs
}
