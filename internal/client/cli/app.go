package cli

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/parishkeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/client/requirements"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
)

type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (*models.AuthSession, error)
	Register(ctx context.Context, email string, password []byte, fullName string) (*models.AuthSession, error)
	Restore(ctx context.Context) (*models.AuthSession, error)
	Logout(ctx context.Context) error
}

type AppointmentService interface {
	List(ctx context.Context, userID string) ([]models.Appointment, error)
	Load(ctx context.Context, id string) (*models.Appointment, error)
}

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	Watch(ctx context.Context, userID string, fn func(models.Notification)) (func(), error)
}

// Uploads is the slice of the coordinator the client drives.
type Uploads interface {
	PickAndUpload(ctx context.Context, requirement string, appt models.AppointmentContext, opts ...coordinator.Option) (coordinator.Outcome, error)
	LoadAttachments(ctx context.Context, appt models.AppointmentContext) (map[string]string, error)
	RetryLinkages(ctx context.Context) (int, error)
	Registry() *requirements.Registry
	Attachments() *coordinator.Attachments
}

type Submitter interface {
	Submit(ctx context.Context, appointmentID string, required []string, attachments map[string]string) error
}

type Deps struct {
	Auth          AuthService
	Appointments  AppointmentService
	Notifications NotificationService
	Uploads       Uploads
	Gate          Submitter
	Reader        *bufio.Reader
	Out           io.Writer
	Log           logging.Logger
}

type App struct {
	auth          AuthService
	appointments  AppointmentService
	notifications NotificationService
	uploads       Uploads
	gate          Submitter
	reader        *bufio.Reader
	out           io.Writer
	log           logging.Logger

	mu        sync.Mutex
	session   *models.AuthSession
	stopWatch func()
}

func NewApp(d Deps) *App {
	log := d.Log
	if log == nil {
		log = logging.NewDiscard()
	}
	return &App{
		auth:          d.Auth,
		appointments:  d.Appointments,
		notifications: d.Notifications,
		uploads:       d.Uploads,
		gate:          d.Gate,
		reader:        d.Reader,
		out:           d.Out,
		log:           log,
	}
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

func (a *App) currentSession() *models.AuthSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *App) setSession(s *models.AuthSession) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func (a *App) status() string {
	if s := a.currentSession(); s != nil {
		if s.Email != "" {
			return s.Email
		}
		return s.UserID
	}
	return "guest"
}

// Run restores a cached session if there is one and serves commands from
// the reader until exit or EOF.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to parishkeeper (type 'help' for commands)")

	if s, err := a.auth.Restore(ctx); err != nil {
		a.log.Warn(ctx, "cannot restore session", "error", err)
	} else if s != nil {
		a.setSession(s)
		printlnFn("Signed in as", a.status())
	}

	defer a.stopWatching()
	runREPL(ctx, a, a.status, a.reader)
}
