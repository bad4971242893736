// File: internal/portal/navigate.go
package portal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rfalmeida/detranbridge/internal/config"
)

// StepKind identifies a navigation primitive.
type StepKind string

const (
	StepNavigate StepKind = "navigate"
	StepHover    StepKind = "hover"
	StepClick    StepKind = "click"
	StepType     StepKind = "type"
)

// Step is one navigation primitive. Query plans are plain data: adding a
// query type means building a new step slice, not new control flow.
type Step struct {
	Kind     StepKind
	Name     string
	Selector string
	Value    string
}

// Navigation state, advanced as the plan executes. Submitted is not terminal;
// the extractor determines the true terminal outcome.
type navState string

const (
	stateInit          navState = "init"
	stateAuthenticated navState = "authenticated_context"
	stateMenuExpanded  navState = "menu_expanded"
	stateFormReady     navState = "form_ready"
	stateSubmitted     navState = "submitted"
)

// The portal's fixed two-level navigation menu. Each level renders only while
// its parent is hovered. The ids are CSS-escaped numerics ("#\32" is id="2").
const (
	menuSelector = `#\32`

	chassisSubmenuSelector = `#\32 -5`
	chassisMenuLink        = `#\32 -5 > ul > li:nth-child(1) > a`
	chassisField           = `#chassi`
	chassisSubmitButton    = `#btn_C`

	binSubmenuSelector = `#\32 -11`
	binMenuLink        = `#\32 -11 > ul > li:nth-child(1) > a`
	binField           = `#dado`
	binChassisButton   = `#btn_C_BINChassi`
	binPlateButton     = `#btn_C_BINPlaca`
	binRenavamButton   = `#btn_C_BINRenavam`

	vehiclesMenuLink     = `#\32 -11 > ul > li:nth-child(3) > a`
	vehiclesField        = `#CPFCNPJ`
	vehiclesSubmitButton = `#btn_910`
)

// BinKeyType selects the BIN query subtype: which format check applies and
// which submit button is pressed.
type BinKeyType string

const (
	BinKeyChassis BinKeyType = "chassis"
	BinKeyPlate   BinKeyType = "plate"
	BinKeyRenavam BinKeyType = "renavam"
)

// binSubmitButton maps the subtype to its search button. Unrecognized
// subtypes fall back to the plate button, matching the portal's own default.
func binSubmitButton(t BinKeyType) string {
	switch t {
	case BinKeyChassis:
		return binChassisButton
	case BinKeyRenavam:
		return binRenavamButton
	default:
		return binPlateButton
	}
}

// chassisPlan drives the portal to the chassis status result page.
//
// The menu click opens a non-deterministic pop-up in the portal, so the plan
// follows it with a direct navigation to the form URL, which is the path that
// reliably reaches the form.
func chassisPlan(cfg config.PortalConfig, chassis string) []Step {
	return []Step{
		{Kind: StepHover, Name: "expand menu", Selector: menuSelector},
		{Kind: StepHover, Name: "expand submenu", Selector: chassisSubmenuSelector},
		{Kind: StepClick, Name: "follow query link", Selector: chassisMenuLink},
		{Kind: StepNavigate, Name: "open query form", Value: cfg.ChassisFormURL},
		{Kind: StepType, Name: "fill chassis", Selector: chassisField, Value: chassis},
		{Kind: StepClick, Name: "submit query", Selector: chassisSubmitButton},
	}
}

// binPlan drives the portal to the BIN result page for the given subtype.
func binPlan(cfg config.PortalConfig, key string, t BinKeyType) []Step {
	return []Step{
		{Kind: StepHover, Name: "expand menu", Selector: menuSelector},
		{Kind: StepHover, Name: "expand submenu", Selector: binSubmenuSelector},
		{Kind: StepClick, Name: "follow query link", Selector: binMenuLink},
		{Kind: StepNavigate, Name: "open query form", Value: cfg.BinFormURL},
		{Kind: StepType, Name: "fill search key", Selector: binField, Value: key},
		{Kind: StepClick, Name: "submit query", Selector: binSubmitButton(t)},
	}
}

// vehiclesPlan drives the portal to the vehicles-by-document listing.
func vehiclesPlan(cfg config.PortalConfig, document string) []Step {
	return []Step{
		{Kind: StepHover, Name: "expand menu", Selector: menuSelector},
		{Kind: StepHover, Name: "expand submenu", Selector: binSubmenuSelector},
		{Kind: StepClick, Name: "follow query link", Selector: vehiclesMenuLink},
		{Kind: StepNavigate, Name: "open query form", Value: cfg.VehiclesFormURL},
		{Kind: StepType, Name: "fill document", Selector: vehiclesField, Value: document},
		{Kind: StepClick, Name: "submit query", Selector: vehiclesSubmitButton},
	}
}

// Navigator executes query plans against a browser session.
type Navigator struct {
	logger *zap.Logger
	cfg    config.PortalConfig
}

// NewNavigator creates a Navigator for the configured portal.
func NewNavigator(logger *zap.Logger, cfg config.PortalConfig) *Navigator {
	return &Navigator{logger: logger.Named("navigator"), cfg: cfg}
}

// Run authenticates the session, restores persisted cookies and executes the
// plan. When the portal bounces the session to its access-control page
// mid-flow, the in-memory cookies are discarded and the plan restarted from
// the authenticated landing page exactly once; a second expiry is fatal.
func (n *Navigator) Run(ctx context.Context, s Session, plan []Step) error {
	if err := s.Authenticate(ctx, n.cfg.Username, n.cfg.Password); err != nil {
		return fmt.Errorf("could not arm portal authentication: %w", err)
	}
	if err := s.RestoreCookies(ctx); err != nil {
		// A missing session only means re-authentication; keep going.
		n.logger.Warn("Could not restore persisted cookies.", zap.Error(err))
	}

	err := n.drive(ctx, s, plan)
	if errors.Is(err, ErrSessionExpired) {
		n.logger.Warn("Session expiry detected mid-flow; re-authenticating once.")
		if clearErr := s.ClearCookies(ctx); clearErr != nil {
			n.logger.Warn("Could not clear expired cookies.", zap.Error(clearErr))
		}
		s.ResetExpired()
		err = n.drive(ctx, s, plan)
		if errors.Is(err, ErrSessionExpired) {
			return fmt.Errorf("session expired again after re-authentication: %w", err)
		}
	}
	return err
}

// drive walks the state machine: Init -> AuthenticatedContext -> MenuExpanded
// -> FormReady -> Submitted.
func (n *Navigator) drive(ctx context.Context, s Session, plan []Step) error {
	state := stateInit

	if err := s.Navigate(ctx, n.cfg.BaseURL); err != nil {
		return &NavigationError{Step: "open portal", Selector: n.cfg.BaseURL, Err: err}
	}
	if s.Expired() {
		return fmt.Errorf("portal redirected to access control on landing: %w", ErrSessionExpired)
	}
	state = stateAuthenticated
	n.logger.Debug("Reached authenticated landing page.", zap.String("state", string(state)))

	for _, step := range plan {
		if err := n.execute(ctx, s, step); err != nil {
			return err
		}
		if s.Expired() {
			return fmt.Errorf("portal redirected to access control after step %q: %w", step.Name, ErrSessionExpired)
		}

		switch step.Kind {
		case StepHover:
			state = stateMenuExpanded
		case StepNavigate, StepType:
			state = stateFormReady
		case StepClick:
			if step.Name == "submit query" {
				state = stateSubmitted
			}
		}
		n.logger.Debug("Navigation step complete.",
			zap.String("step", step.Name),
			zap.String("state", string(state)))
	}

	if state != stateSubmitted {
		return &NavigationError{Step: "submit query", Err: fmt.Errorf("plan ended in state %q", state)}
	}
	return nil
}

func (n *Navigator) execute(ctx context.Context, s Session, step Step) error {
	var err error
	switch step.Kind {
	case StepNavigate:
		err = s.Navigate(ctx, step.Value)
	case StepHover:
		err = s.Hover(ctx, step.Selector)
	case StepClick:
		err = s.Click(ctx, step.Selector)
	case StepType:
		err = s.Type(ctx, step.Selector, step.Value)
	default:
		err = fmt.Errorf("unknown step kind %q", step.Kind)
	}
	if err != nil {
		return &NavigationError{Step: step.Name, Selector: step.Selector, Err: err}
	}
	return nil
}
