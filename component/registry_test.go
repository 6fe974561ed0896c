package component_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kyrelabs/keel"
	"github.com/kyrelabs/keel/component"
	"github.com/kyrelabs/keel/config"
)

func testDocument(t *testing.T, content string) *config.Document {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	doc, err := config.Loader{Folder: dir}.Load(config.Test)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return doc
}

type widget struct {
	name string
}

type widgetConfig struct {
	Name string `toml:"name"`
}

// widgetProvider counts Create invocations and can fail a number of times
// before succeeding, with an optional delay to widen race windows.
type widgetProvider struct {
	calls    *atomic.Int32
	failures *atomic.Int32
	delay    time.Duration
}

func (p widgetProvider) ConfigKey() string { return "widget" }

func (p widgetProvider) Create(ctx context.Context, cfg widgetConfig, _ *component.Registry) (*widget, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.calls.Add(1)
	if p.failures != nil && p.failures.Add(-1) >= 0 {
		return nil, errors.New("transient failure")
	}
	return &widget{name: cfg.Name}, nil
}

func newWidgetProvider() widgetProvider {
	return widgetProvider{calls: &atomic.Int32{}}
}

// gadget depends on widget through the registry.
type gadget struct {
	widget *widget
}

type gadgetConfig struct {
	Label string `toml:"label"`
}

type gadgetProvider struct {
	widgets widgetProvider
}

func (p gadgetProvider) ConfigKey() string { return "gadget" }

func (p gadgetProvider) Create(ctx context.Context, cfg gadgetConfig, reg *component.Registry) (*gadget, error) {
	w, err := component.Resolve[*widget, widgetConfig](ctx, reg, p.widgets)
	if err != nil {
		return nil, err
	}
	return &gadget{widget: w}, nil
}

const widgetAndGadget = "[widget]\nname = \"w\"\n\n[gadget]\nlabel = \"g\"\n"

func TestResolveMemoizes(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, widgetAndGadget))
	provider := newWidgetProvider()

	first, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, provider)
	if err != nil {
		t.Fatalf("first Resolve returned error: %v", err)
	}
	second, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, provider)
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}

	if first != second {
		t.Fatalf("expected the same instance on both calls")
	}
	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one construction, got %d", got)
	}
	if first.name != "w" {
		t.Fatalf("expected config section to reach the factory, got %q", first.name)
	}
}

func TestResolveSingleFlight(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, widgetAndGadget))
	provider := newWidgetProvider()
	provider.delay = 50 * time.Millisecond

	const callers = 16
	var wg sync.WaitGroup
	instances := make([]*widget, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			instances[i], errs[i] = component.Resolve[*widget, widgetConfig](context.Background(), reg, provider)
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d returned error: %v", i, errs[i])
		}
		if instances[i] != instances[0] {
			t.Fatalf("caller %d observed a different instance", i)
		}
	}
	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one construction under concurrency, got %d", got)
	}
}

func TestResolveFailureIsNotCached(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, widgetAndGadget))
	provider := newWidgetProvider()
	provider.failures = &atomic.Int32{}
	provider.failures.Store(1)

	_, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, provider)
	if err == nil {
		t.Fatalf("expected the first construction to fail")
	}
	if keel.KindOf(err) != keel.KindComponent {
		t.Fatalf("expected component kind, got %v", keel.KindOf(err))
	}

	w, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, provider)
	if err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if w == nil {
		t.Fatalf("expected an instance from the retry")
	}
	if got := provider.calls.Load(); got != 2 {
		t.Fatalf("expected two construction attempts, got %d", got)
	}
}

func TestResolveSharesDependencyInstance(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, widgetAndGadget))
	widgets := newWidgetProvider()

	g, err := component.Resolve[*gadget, gadgetConfig](context.Background(), reg, gadgetProvider{widgets: widgets})
	if err != nil {
		t.Fatalf("Resolve gadget returned error: %v", err)
	}

	w, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, widgets)
	if err != nil {
		t.Fatalf("Resolve widget returned error: %v", err)
	}

	if g.widget != w {
		t.Fatalf("expected the gadget's dependency and the direct request to share one instance")
	}
	if got := widgets.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one widget construction, got %d", got)
	}
}

func TestResolveMissingSection(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, "[gadget]\nlabel = \"g\"\n"))

	_, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, newWidgetProvider())
	if err == nil {
		t.Fatalf("expected error for missing config section")
	}
	if keel.KindOf(err) != keel.KindDeserialize {
		t.Fatalf("expected deserialize kind, got %v", keel.KindOf(err))
	}
}

type selfProvider struct{}

func (selfProvider) ConfigKey() string { return "widget" }

func (p selfProvider) Create(ctx context.Context, _ widgetConfig, reg *component.Registry) (*widget, error) {
	return component.Resolve[*widget, widgetConfig](ctx, reg, p)
}

func TestResolveDetectsSelfCycle(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, widgetAndGadget))

	_, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, selfProvider{})
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !keel.HasKind(err, keel.KindCycle) {
		t.Fatalf("expected cycle kind in chain, got %v", err)
	}
}

type pingProvider struct{}

func (pingProvider) ConfigKey() string { return "ping" }

func (pingProvider) Create(ctx context.Context, _ struct{}, reg *component.Registry) (string, error) {
	pong, err := component.Resolve[string, struct{}](ctx, reg, pongProvider{})
	if err != nil {
		return "", err
	}
	return "ping-" + pong, nil
}

type pongProvider struct{}

func (pongProvider) ConfigKey() string { return "pong" }

func (pongProvider) Create(ctx context.Context, _ struct{}, reg *component.Registry) (string, error) {
	ping, err := component.Resolve[string, struct{}](ctx, reg, pingProvider{})
	if err != nil {
		return "", err
	}
	return "pong-" + ping, nil
}

func TestResolveDetectsMutualCycle(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, "[ping]\n\n[pong]\n"))

	_, err := component.Resolve[string, struct{}](context.Background(), reg, pingProvider{})
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !keel.HasKind(err, keel.KindCycle) {
		t.Fatalf("expected cycle kind in chain, got %v", err)
	}
}

type clashingProvider struct{}

func (clashingProvider) ConfigKey() string { return "widget" }

func (clashingProvider) Create(ctx context.Context, _ widgetConfig, _ *component.Registry) (string, error) {
	return "not a widget", nil
}

func TestResolveTypeMismatchIsInternal(t *testing.T) {
	reg := component.NewRegistry(testDocument(t, widgetAndGadget))

	if _, err := component.Resolve[*widget, widgetConfig](context.Background(), reg, newWidgetProvider()); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	// A second provider reusing the key with a different component type must
	// surface the stored-type mismatch as an internal defect.
	_, err := component.Resolve[string, widgetConfig](context.Background(), reg, clashingProvider{})
	if err == nil {
		t.Fatalf("expected internal error")
	}
	if keel.KindOf(err) != keel.KindInternal {
		t.Fatalf("expected internal kind, got %v", keel.KindOf(err))
	}
}

func TestRegistryConfig(t *testing.T) {
	doc := testDocument(t, widgetAndGadget)
	reg := component.NewRegistry(doc)

	if reg.Config() != doc {
		t.Fatalf("expected the registry to hand back its document")
	}
}
