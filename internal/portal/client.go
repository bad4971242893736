// File: internal/portal/client.go
package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rfalmeida/detranbridge/internal/config"
)

// Client runs registry queries end to end: validate, navigate, extract,
// normalize. Each query owns one browser session for its whole lifetime and
// releases it on every exit path.
type Client struct {
	logger    *zap.Logger
	cfg       *config.Config
	sessions  SessionFactory
	navigator *Navigator
	extractor *Extractor
	limiter   *rate.Limiter

	chassisDict  *LabelDictionary
	binDict      *LabelDictionary
	vehiclesDict *LabelDictionary
}

// NewClient wires the query pipeline against the configured portal.
func NewClient(logger *zap.Logger, cfg *config.Config, sessions SessionFactory) *Client {
	qpm := cfg.Portal.QueriesPerMinute
	if qpm <= 0 {
		qpm = 10
	}
	interval := time.Minute / time.Duration(qpm)

	return &Client{
		logger:       logger.Named("portal"),
		cfg:          cfg,
		sessions:     sessions,
		navigator:    NewNavigator(logger, cfg.Portal),
		extractor:    NewExtractor(logger, cfg.Portal.BannerTimeout, cfg.Portal.TableTimeout),
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		chassisDict:  NewChassisDictionary(cfg.Portal.Labels.ChassisFallbackPrefix),
		binDict:      NewBinDictionary(cfg.Portal.Labels.BinFallbackPrefix),
		vehiclesDict: NewVehiclesDictionary(cfg.Portal.Labels.VehiclesFallbackPrefix),
	}
}

// LookupChassisStatus queries the portal for a chassis' lien status.
// A nil record with nil error means the registry has no matching vehicle.
func (c *Client) LookupChassisStatus(ctx context.Context, chassis string) (Record, error) {
	if !CheckChassis(chassis) {
		return nil, fmt.Errorf("%w: chassis %q", ErrInvalidInput, chassis)
	}

	recs, err := c.run(ctx, "chassis_status",
		chassisPlan(c.cfg.Portal, chassis), chassisTable, c.chassisDict)
	if err != nil {
		return nil, err
	}
	rec := recs[0]

	// The portal renders a placeholder row with an all-zero registry number
	// when the chassis is unknown.
	if renavam, ok := rec.Get("reindeer"); ok && strings.Contains(renavam, "00000000000") {
		return nil, nil
	}

	return Normalize(rec, chassisComposites)
}

// LookupBin queries the vehicle base record by chassis, plate or renavam.
// ErrNoData reports the portal's explicit no-data banner.
func (c *Client) LookupBin(ctx context.Context, key string, keyType BinKeyType) (Record, error) {
	if err := checkBinKey(key, keyType); err != nil {
		return nil, err
	}

	recs, err := c.run(ctx, "bin", binPlan(c.cfg.Portal, key, keyType), binTable, c.binDict)
	if err != nil {
		return nil, err
	}

	return Normalize(recs[0], binComposites)
}

// LookupVehiclesByDocument lists vehicles registered to an owner CPF/CNPJ.
// A successfully executed query with zero result rows returns an empty,
// non-nil slice.
func (c *Client) LookupVehiclesByDocument(ctx context.Context, document string) ([]Record, error) {
	digits, kind := ClassifyDocument(document)
	if kind == DocumentInvalid {
		return nil, fmt.Errorf("%w: document %q", ErrInvalidInput, document)
	}
	c.logger.Debug("Running vehicle listing.",
		zap.String("document_kind", kind.String()),
		zap.Int("digits", len(digits)))

	recs, err := c.run(ctx, "vehicles",
		vehiclesPlan(c.cfg.Portal, digits), vehiclesTable, c.vehiclesDict)
	if err != nil {
		return nil, err
	}

	return NormalizeAll(recs, vehiclesComposites)
}

// run owns the session lifecycle for one query: throttle, open, navigate,
// extract, close. The session is torn down on every path, and never while an
// extraction read is in flight.
func (c *Client) run(ctx context.Context, queryType string, plan []Step, spec TableSpec, dict *LabelDictionary) ([]Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	logger := c.logger.With(zap.String("query_type", queryType))
	logger.Info("Starting portal query.")

	s, err := c.sessions.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not open browser session: %w", err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			logger.Warn("Could not close browser session.", zap.Error(closeErr))
		}
	}()

	if err := c.navigator.Run(ctx, s, plan); err != nil {
		logger.Warn("Portal navigation failed.", zap.Error(err))
		return nil, err
	}

	recs, err := c.extractor.ClassifyAndExtract(ctx, s, spec, dict)
	if err != nil {
		return nil, err
	}

	logger.Info("Portal query complete.", zap.Int("records", len(recs)))
	return recs, nil
}

func checkBinKey(key string, keyType BinKeyType) error {
	switch keyType {
	case BinKeyChassis:
		if !CheckChassis(key) {
			return fmt.Errorf("%w: chassis %q", ErrInvalidInput, key)
		}
	case BinKeyRenavam:
		if !CheckRenavam(key) {
			return fmt.Errorf("%w: renavam %q", ErrInvalidInput, key)
		}
	default:
		// Plate, and any unrecognized subtype the navigation layer will
		// submit through the plate button.
		if !CheckLicensePlate(key) {
			return fmt.Errorf("%w: plate %q", ErrInvalidInput, key)
		}
	}
	return nil
}

// String names the document kind for logs.
func (k DocumentKind) String() string {
	switch k {
	case DocumentCPF:
		return "cpf"
	case DocumentCNPJ:
		return "cnpj"
	default:
		return "invalid"
	}
}
