package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/artpar/parcelpost/internal/core/domain"
	"github.com/artpar/parcelpost/internal/core/manifest"
	"github.com/artpar/parcelpost/internal/shell/auspost"
	"github.com/artpar/parcelpost/internal/shell/sandbox"
	"github.com/artpar/parcelpost/internal/shell/shipping"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitUsageError   = 2
	ExitCarrierError = 3
	ExitServerError  = 4
)

// ErrUsage is returned for malformed command lines.
var ErrUsage = errors.New("invalid usage")

var _ shipping.Transport = (*auspost.Client)(nil)

// =============================================================================
// App
// =============================================================================

// App wires configuration, the carrier client and the shipping service
// together and dispatches subcommands.
type App struct {
	cfg     *Config
	logger  *slog.Logger
	out     io.Writer
	service *shipping.Service
}

type command func(ctx context.Context, args []string) error

// NewApp creates an App talking to the configured carrier.
func NewApp(cfg *Config, logger *slog.Logger, out io.Writer) *App {
	client := auspost.NewClient(auspost.Config{
		BaseURL:       cfg.Carrier.ResolvedBaseURL(),
		APIKey:        cfg.Carrier.APIKey,
		Password:      cfg.Carrier.Password,
		AccountNumber: cfg.Carrier.AccountNumber,
		Timeout:       cfg.Carrier.Timeout,
	}, logger)

	return &App{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		service: shipping.NewService(client, shipping.Options{StrictCorrelation: cfg.Shipping.StrictCorrelation}, logger),
	}
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"quote":   a.runQuote,
		"lodge":   a.runLodge,
		"label":   a.runLabel,
		"delete":  a.runDelete,
		"sandbox": a.runSandbox,
	}
}

func commandNames() string {
	names := make([]string, 0, len((&App{}).commands()))
	for name := range (&App{}).commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// Run dispatches args[0] to its subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("run", fmt.Errorf("%w: expected one of %s", ErrUsage, commandNames()))
	}
	cmd, ok := a.commands()[args[0]]
	if !ok {
		return usageError("run", fmt.Errorf("%w: unknown command %q", ErrUsage, args[0]))
	}
	return cmd(ctx, args[1:])
}

// =============================================================================
// Commands
// =============================================================================

func (a *App) runQuote(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("quote", fmt.Errorf("%w: quote <manifest>", ErrUsage))
	}
	m, err := readManifest(args[0])
	if err != nil {
		return err
	}

	quotes, err := a.service.Quote(ctx, m.Shipment)
	if err != nil {
		return carrierError("quote", err)
	}
	return a.print(quotes)
}

// LodgeOutput is what the lodge command prints.
type LodgeOutput struct {
	ShipmentID       string          `json:"shipment_id"`
	LodgedAt         *time.Time      `json:"lodged_at"`
	Parcels          []domain.Parcel `json:"parcels"`
	UnmatchedParcels []string        `json:"unmatched_parcels,omitempty"`
	UnknownItems     []string        `json:"unknown_items,omitempty"`
	LabelURL         string          `json:"label_url,omitempty"`
}

func (a *App) runLodge(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lodge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	withLabel := fs.Bool("label", false, "Request a label using the manifest's label settings")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return usageError("lodge", fmt.Errorf("%w: lodge [-label] <manifest>", ErrUsage))
	}
	m, err := readManifest(fs.Arg(0))
	if err != nil {
		return err
	}
	if *withLabel {
		if err := domain.ValidateLabel(m.Shipment.ProductGroup, m.Label); err != nil {
			return usageError("lodge", err)
		}
	}

	corr, err := a.service.Lodge(ctx, m.Shipment)
	out := LodgeOutput{
		ShipmentID:       m.Shipment.ShipmentID,
		LodgedAt:         m.Shipment.LodgedAt,
		Parcels:          m.Shipment.Parcels,
		UnmatchedParcels: corr.UnmatchedParcels,
		UnknownItems:     corr.UnknownItems,
	}
	if out.ShipmentID == "" && len(corr.ShipmentIDs) > 0 {
		out.ShipmentID = corr.ShipmentIDs[len(corr.ShipmentIDs)-1]
	}
	if err != nil {
		// The carrier may hold the shipment even though lodging failed here.
		if out.ShipmentID != "" {
			a.report(out)
		}
		return carrierError("lodge", err)
	}

	if *withLabel {
		url, err := a.service.Label(ctx, m.Shipment, m.Label)
		if err != nil {
			a.report(out)
			return carrierError("label", err)
		}
		out.LabelURL = url
	}
	return a.print(out)
}

// report prints a lodgement on a failure path, where the command error
// takes precedence over any write error.
func (a *App) report(out LodgeOutput) {
	if err := a.print(out); err != nil {
		a.logger.Error("failed to write lodgement output",
			"shipment_id", out.ShipmentID,
			"error", err,
		)
	}
}

func (a *App) runLabel(ctx context.Context, args []string) error {
	defaults := domain.DefaultLabelType()
	fs := flag.NewFlagSet("label", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	group := fs.String("group", string(domain.GroupParcelPost), "Product group of the shipment")
	layout := fs.String("layout", string(defaults.Layout), "Label layout")
	format := fs.String("format", string(defaults.Format), "Label format (PDF or ZPL)")
	branded := fs.Bool("branded", defaults.Branded, "Print carrier branding")
	left := fs.Float64("left-offset", defaults.LeftOffset, "Left print offset")
	top := fs.Float64("top-offset", defaults.TopOffset, "Top print offset")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return usageError("label", fmt.Errorf("%w: label [flags] <shipment-id>", ErrUsage))
	}

	lt := domain.LabelType{
		Layout:     domain.Layout(*layout),
		Format:     domain.Format(strings.ToUpper(*format)),
		Branded:    *branded,
		LeftOffset: *left,
		TopOffset:  *top,
	}
	s := shipping.Resume(fs.Arg(0), domain.ProductGroup(*group))

	url, err := a.service.Label(ctx, s, lt)
	if err != nil {
		var labelErr *domain.LabelError
		if errors.As(err, &labelErr) || errors.Is(err, domain.ErrUnknownFormat) || errors.Is(err, domain.ErrUnknownProductGroup) {
			return usageError("label", err)
		}
		return carrierError("label", err)
	}
	return a.print(map[string]string{"shipment_id": s.ShipmentID, "url": url})
}

func (a *App) runDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("delete", fmt.Errorf("%w: delete <shipment-id>", ErrUsage))
	}
	s := shipping.Resume(args[0], "")

	ok, err := a.service.Delete(ctx, s)
	if err != nil {
		return carrierError("delete", err)
	}
	return a.print(map[string]any{"shipment_id": s.ShipmentID, "deleted": ok})
}

func (a *App) runSandbox(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return usageError("sandbox", fmt.Errorf("%w: sandbox takes no arguments", ErrUsage))
	}

	sb := sandbox.NewServer(a.cfg.Sandbox.LabelHost, a.logger)
	srv := &http.Server{
		Addr:              a.cfg.Sandbox.Address(),
		Handler:           sb.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("sandbox carrier listening", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return &CommandError{Op: "sandbox", Err: err, ExitCode: ExitServerError}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info("shutting down sandbox carrier")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return &CommandError{Op: "sandbox", Err: err, ExitCode: ExitServerError}
		}
		return nil
	}
}

// =============================================================================
// Helpers
// =============================================================================

func readManifest(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usageError("read manifest", err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, usageError("parse manifest", err)
	}
	return m, nil
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CommandError represents a failed subcommand.
type CommandError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *CommandError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func usageError(op string, err error) error {
	return &CommandError{Op: op, Err: err, ExitCode: ExitUsageError}
}

func carrierError(op string, err error) error {
	return &CommandError{Op: op, Err: err, ExitCode: ExitCarrierError}
}
