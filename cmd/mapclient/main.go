// Command mapclient drives the monument map from a terminal: it lists, adds,
// edits and deletes markers against a running backend, loads the World
// Heritage overlay and exports everything drawn as GeoJSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/app"
	"github.com/ukydev/monument-map/internal/config"
	"github.com/ukydev/monument-map/internal/form"
	"github.com/ukydev/monument-map/internal/models"
	"github.com/ukydev/monument-map/internal/session"
)

const usage = `usage: mapclient [flags] <command> [command flags]

commands:
  list       print every marker
  add        create a marker (-title, -description, -lat, -lng)
  edit       change a marker you own (-id plus the fields to change)
  delete     delete a marker you own (-id)
  register   create an account from -user and -password
  heritage   print the World Heritage Sites overlay
  export     write markers and heritage sites as GeoJSON (-o)
`

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("invalid usage")

var errLoginFailed = errors.New(session.LoginFailedMessage)

type options struct {
	backend  string
	heritage string
	username string
	password string
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, ErrUsage) {
			os.Exit(2)
		}
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	opts := options{
		backend:  cfg.Client.BackendURL,
		heritage: cfg.Client.HeritageEndpoint,
		username: os.Getenv(config.EnvPrefix + "_USERNAME"),
		password: os.Getenv(config.EnvPrefix + "_PASSWORD"),
	}

	fs := flag.NewFlagSet("mapclient", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	fs.StringVar(&opts.backend, "backend", opts.backend, "marker backend base URL")
	fs.StringVar(&opts.heritage, "heritage", opts.heritage, "SPARQL endpoint for heritage sites")
	fs.StringVar(&opts.username, "user", opts.username, "username")
	fs.StringVar(&opts.password, "password", opts.password, "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	page, err := app.New(app.Options{
		BackendURL:       opts.backend,
		HeritageEndpoint: opts.heritage,
		Timeout:          cfg.Client.Timeout,
		Alerter: session.AlertFunc(func(message string) {
			fmt.Fprintln(stderr, message)
		}),
	})
	if err != nil {
		return err
	}

	command, rest := fs.Arg(0), fs.Args()[1:]
	switch command {
	case "list":
		return listMarkers(ctx, page, stdout)
	case "add":
		return addMarker(ctx, page, opts, rest, stdout)
	case "edit":
		return editMarker(ctx, page, opts, rest, stdout)
	case "delete":
		return deleteMarker(ctx, page, opts, rest, stdout)
	case "register":
		return register(ctx, page, opts, stdout)
	case "heritage":
		return listHeritage(ctx, page, stdout)
	case "export":
		return export(ctx, page, rest, stdout)
	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

func login(ctx context.Context, page *app.Page, opts options) error {
	if opts.username == "" {
		return fmt.Errorf("%w: -user is required", ErrUsage)
	}
	if !page.Session.Login(ctx, opts.username, opts.password) {
		return errLoginFailed
	}
	return nil
}

func listMarkers(ctx context.Context, page *app.Page, stdout io.Writer) error {
	list, err := page.Markers.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tLAT\tLNG\tTITLE\tDESCRIPTION")
	for _, m := range list {
		fmt.Fprintf(tw, "%d\t%d\t%.6f\t%.6f\t%s\t%s\n",
			m.ID, m.OwnerID, m.Position.Lat, m.Position.Lng, m.Title, m.Description)
	}
	return tw.Flush()
}

type markerFlags struct {
	fs          *flag.FlagSet
	id          int64
	title       string
	description string
	lat         float64
	lng         float64
}

func parseMarkerFlags(name string, args []string, withID bool) (*markerFlags, error) {
	mf := &markerFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	mf.fs.SetOutput(io.Discard)
	if withID {
		mf.fs.Int64Var(&mf.id, "id", 0, "marker id")
	}
	mf.fs.StringVar(&mf.title, "title", "", "marker title")
	mf.fs.StringVar(&mf.description, "description", "", "marker description")
	mf.fs.Float64Var(&mf.lat, "lat", 0, "latitude")
	mf.fs.Float64Var(&mf.lng, "lng", 0, "longitude")
	if err := mf.fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUsage, name, err)
	}
	if withID && mf.id <= 0 {
		return nil, fmt.Errorf("%w: %s: -id is required", ErrUsage, name)
	}
	return mf, nil
}

func (mf *markerFlags) isSet(name string) bool {
	set := false
	mf.fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func addMarker(ctx context.Context, page *app.Page, opts options, args []string, stdout io.Writer) error {
	mf, err := parseMarkerFlags("add", args, false)
	if err != nil {
		return err
	}
	if !mf.isSet("lat") || !mf.isSet("lng") {
		return fmt.Errorf("%w: add: -lat and -lng are required", ErrUsage)
	}
	if err := login(ctx, page, opts); err != nil {
		return err
	}

	if !page.Form.MapClick(models.LatLng{Lat: mf.lat, Lng: mf.lng}) {
		return form.ErrNoSession
	}
	m, err := page.Form.Submit(ctx, form.Fields{Title: mf.title, Description: mf.description})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created marker %d\n", m.ID)
	return nil
}

func editMarker(ctx context.Context, page *app.Page, opts options, args []string, stdout io.Writer) error {
	mf, err := parseMarkerFlags("edit", args, true)
	if err != nil {
		return err
	}
	if err := openExisting(ctx, page, opts, mf.id); err != nil {
		return err
	}

	view := page.Form.View()
	fields := form.Fields{Title: view.Title, Description: view.Description}
	if mf.isSet("title") {
		fields.Title = mf.title
	}
	if mf.isSet("description") {
		fields.Description = mf.description
	}
	pos := view.Position
	if mf.isSet("lat") {
		pos.Lat = mf.lat
	}
	if mf.isSet("lng") {
		pos.Lng = mf.lng
	}
	page.Form.Move(pos)

	if _, err := page.Form.Submit(ctx, fields); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "updated marker %d\n", mf.id)
	return nil
}

func deleteMarker(ctx context.Context, page *app.Page, opts options, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.Int64("id", 0, "marker id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrUsage, err)
	}
	if *id <= 0 {
		return fmt.Errorf("%w: delete: -id is required", ErrUsage)
	}
	if err := openExisting(ctx, page, opts, *id); err != nil {
		return err
	}
	if err := page.Form.Delete(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted marker %d\n", *id)
	return nil
}

// openExisting logs in, loads the markers and opens the edit form for id.
func openExisting(ctx context.Context, page *app.Page, opts options, id int64) error {
	if err := login(ctx, page, opts); err != nil {
		return err
	}
	if _, err := page.Markers.List(ctx); err != nil {
		return err
	}
	return page.Form.Edit(id)
}

func register(ctx context.Context, page *app.Page, opts options, stdout io.Writer) error {
	if opts.username == "" {
		return fmt.Errorf("%w: -user is required", ErrUsage)
	}
	if !page.Session.Register(ctx, opts.username, opts.password) {
		return errors.New(session.RegistrationFailedMessage)
	}
	fmt.Fprintf(stdout, "registered %s\n", opts.username)
	return nil
}

func listHeritage(ctx context.Context, page *app.Page, stdout io.Writer) error {
	sites, err := page.Heritage.LoadAll(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAT\tLNG\tLABEL\tARTICLE")
	for _, s := range sites {
		fmt.Fprintf(tw, "%.6f\t%.6f\t%s\t%s\n", s.Position.Lat, s.Position.Lng, s.Label, s.Article)
	}
	return tw.Flush()
}

func export(ctx context.Context, page *app.Page, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", "", "output file, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: export: %v", ErrUsage, err)
	}

	page.Init(ctx)
	data, err := page.Canvas.GeoJSON()
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Fprintf(stdout, "wrote %d overlays to %s\n", page.Canvas.Len(), *out)
	return nil
}
