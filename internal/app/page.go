// Package app wires the map page: one surface, one backend client and the
// components that draw on it.
package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/monument-map/internal/api"
	"github.com/ukydev/monument-map/internal/form"
	"github.com/ukydev/monument-map/internal/heritage"
	"github.com/ukydev/monument-map/internal/markers"
	"github.com/ukydev/monument-map/internal/overlay"
	"github.com/ukydev/monument-map/internal/places"
	"github.com/ukydev/monument-map/internal/session"
)

// Options configures a Page.
type Options struct {
	BackendURL       string
	HeritageEndpoint string
	Timeout          time.Duration
	// Alerter receives blocking messages. Defaults to logging them.
	Alerter session.Alerter
	Logger  log.FieldLogger
}

// Page is the composition root of the client.
type Page struct {
	Canvas   *overlay.Canvas
	Client   *api.Client
	Markers  *markers.Registry
	Session  *session.Session
	Form     *form.Controller
	Heritage *heritage.Loader
	Places   *places.Layer

	log log.FieldLogger
}

// New builds a page. Nothing is fetched until Init.
func New(opts Options) (*Page, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	alerts := opts.Alerter
	if alerts == nil {
		alerts = session.AlertFunc(func(message string) {
			logger.WithField("component", "alert").Warn(message)
		})
	}

	client, err := api.New(opts.BackendURL, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	canvas := overlay.NewCanvas()
	sess := session.New(client, alerts, logger)
	registry := markers.NewRegistry(client, canvas, sess, logger)
	sess.Bind(registry)
	controller := form.NewController(registry, sess, logger)
	sess.OnLogout(controller.Cancel)

	return &Page{
		Canvas:   canvas,
		Client:   client,
		Markers:  registry,
		Session:  sess,
		Form:     controller,
		Heritage: heritage.NewLoader(opts.HeritageEndpoint, opts.Timeout, canvas, logger),
		Places:   places.NewLayer(canvas, logger),
		log:      logger.WithField("component", "page"),
	}, nil
}

// Init loads the markers and the heritage sites concurrently. Failures are
// logged and leave the corresponding layer empty.
func (p *Page) Init(ctx context.Context) {
	var g errgroup.Group

	g.Go(func() error {
		if _, err := p.Markers.List(ctx); err != nil {
			p.log.WithError(err).Error("Error fetching markers")
		}
		return nil
	})
	g.Go(func() error {
		if _, err := p.Heritage.LoadAll(ctx); err != nil {
			p.log.WithError(err).Error("Error fetching world heritage sites")
		}
		return nil
	})

	_ = g.Wait()
}
