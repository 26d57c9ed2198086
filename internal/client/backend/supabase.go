package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/logging"
	"github.com/gorilla/websocket"
)

// Options configures a Client. Zero values pick defaults.
type Options struct {
	URL        string
	AnonKey    string
	HTTPClient *http.Client
	Sessions   SessionStore
	Logger     logging.Logger

	RefreshInterval time.Duration
	RefreshMargin   time.Duration

	Dialer    *websocket.Dialer
	Heartbeat time.Duration

	// Tables and Storage replace the REST table client and the BaaS object
	// storage, e.g. with PostgresTables and S3Storage.
	Tables  Tables
	Storage Storage
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.NewDiscard()
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRefreshInterval
	}
	if o.RefreshMargin <= 0 {
		o.RefreshMargin = DefaultRefreshMargin
	}
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	return o
}

// Client is the DataBackend for a hosted BaaS project.
type Client struct {
	auth     *RESTAuth
	tables   Tables
	storage  Storage
	realtime *RealtimeClient
}

var _ DataBackend = (*Client)(nil)

func New(opts Options) *Client {
	opts = opts.withDefaults()
	rest := newRESTClient(opts.URL, opts.AnonKey, opts.HTTPClient)

	auth := newRESTAuth(rest, opts)
	c := &Client{
		auth:     auth,
		tables:   opts.Tables,
		storage:  opts.Storage,
		realtime: NewRealtimeClient(opts, auth),
	}
	if c.tables == nil {
		c.tables = &RESTTables{rest: rest, tokens: auth}
	}
	if c.storage == nil {
		c.storage = NewObjectStorage(opts.URL)
	}
	return c
}

func (c *Client) Auth() Auth         { return c.auth }
func (c *Client) Tables() Tables     { return c.tables }
func (c *Client) Storage() Storage   { return c.storage }
func (c *Client) Realtime() Realtime { return c.realtime }

// Start begins background token refresh.
func (c *Client) Start(ctx context.Context) {
	c.auth.Start(ctx)
}

func (c *Client) Stop() {
	c.auth.Stop()
}
