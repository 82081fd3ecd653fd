package container

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type greeter interface {
	Greet() string
}

type englishGreeter struct{ name string }

func (g *englishGreeter) Greet() string { return "hello " + g.name }

type mailer struct{ from string }

type notifier struct {
	mailer *mailer
	greet  greeter
}

func TestSingleton_ReturnsSameInstance(t *testing.T) {
	c := New()
	c.Singleton("mailer", func(c *Container, _ Params) (any, error) {
		return &mailer{from: "front-desk@hotel.test"}, nil
	})

	first, err := c.Resolve("mailer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Resolve("mailer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("singleton resolved twice should return the identical instance")
	}
}

func TestBind_ReturnsFreshInstances(t *testing.T) {
	c := New()
	c.Bind("mailer", func(c *Container, _ Params) (any, error) {
		return &mailer{}, nil
	})

	first, _ := Resolve[*mailer](c, "mailer")
	second, _ := Resolve[*mailer](c, "mailer")
	if first == second {
		t.Error("transient binding should produce distinct instances")
	}
}

func TestResolve_UnboundKey(t *testing.T) {
	c := New()

	_, err := c.Resolve("payments.gateway")
	if !errors.Is(err, ErrUnresolvableDependency) {
		t.Fatalf("expected ErrUnresolvableDependency, got %v", err)
	}

	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Key != "payments.gateway" {
		t.Errorf("expected ResolutionError for the key, got %#v", err)
	}
}

func TestResolve_MissingNestedDependency(t *testing.T) {
	c := New()
	c.Singleton("notifier", func(c *Container, _ Params) (any, error) {
		m, err := Resolve[*mailer](c, "mailer")
		if err != nil {
			return nil, err
		}
		return &notifier{mailer: m}, nil
	})

	_, err := c.Resolve("notifier")
	if !errors.Is(err, ErrUnresolvableDependency) {
		t.Fatalf("expected ErrUnresolvableDependency, got %v", err)
	}
	var resErr *ResolutionError
	if errors.As(err, &resErr) && resErr.Key != "mailer" {
		t.Errorf("error should name the missing key, got %q", resErr.Key)
	}
}

func TestResolve_DependencyGraph(t *testing.T) {
	c := New()
	c.Instance("config.from", "reservations@hotel.test")
	c.Singleton("mailer", func(c *Container, _ Params) (any, error) {
		from, err := Resolve[string](c, "config.from")
		if err != nil {
			return nil, err
		}
		return &mailer{from: from}, nil
	})
	c.Bind("greeter.english", func(c *Container, p Params) (any, error) {
		return &englishGreeter{name: Param(p, "name", "guest")}, nil
	})
	c.Alias("greeter", "greeter.english")
	c.Bind("notifier", func(c *Container, p Params) (any, error) {
		m, err := Resolve[*mailer](c, "mailer")
		if err != nil {
			return nil, err
		}
		g, err := ResolveWith[greeter](c, "greeter", p)
		if err != nil {
			return nil, err
		}
		return &notifier{mailer: m, greet: g}, nil
	})

	n, err := ResolveWith[*notifier](c, "notifier", Params{"name": "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.mailer.from != "reservations@hotel.test" {
		t.Errorf("mailer.from = %q", n.mailer.from)
	}
	if got := n.greet.Greet(); got != "hello Ada" {
		t.Errorf("explicit param not applied, got %q", got)
	}

	n2, _ := Resolve[*notifier](c, "notifier")
	if got := n2.greet.Greet(); got != "hello guest" {
		t.Errorf("default param not applied, got %q", got)
	}
	if n.mailer != n2.mailer {
		t.Error("shared singleton dependency should be reused")
	}
}

func TestSingleton_IgnoresParamsAfterFirstResolution(t *testing.T) {
	c := New()
	c.Singleton("greeter", func(c *Container, p Params) (any, error) {
		return &englishGreeter{name: Param(p, "name", "guest")}, nil
	})

	first, _ := ResolveWith[*englishGreeter](c, "greeter", Params{"name": "first"})
	second, _ := ResolveWith[*englishGreeter](c, "greeter", Params{"name": "second"})

	if second.name != "first" || first != second {
		t.Errorf("cached singleton must be returned unchanged, got %q", second.name)
	}
}

func TestAlias_MissingTarget(t *testing.T) {
	c := New()
	c.Alias("greeter", "greeter.french")

	_, err := c.Resolve("greeter")
	if !errors.Is(err, ErrConcreteNotFound) {
		t.Fatalf("expected ErrConcreteNotFound, got %v", err)
	}
}

func TestNotInstantiable(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(c *Container)
		resolve func(c *Container) error
	}{
		{
			name:  "abstract binding",
			setup: func(c *Container) { c.Bind("greeter", nil) },
			resolve: func(c *Container) error {
				_, err := c.Resolve("greeter")
				return err
			},
		},
		{
			name: "factory returns nil",
			setup: func(c *Container) {
				c.Bind("greeter", func(*Container, Params) (any, error) { return nil, nil })
			},
			resolve: func(c *Container) error {
				_, err := c.Resolve("greeter")
				return err
			},
		},
		{
			name: "factory fails",
			setup: func(c *Container) {
				c.Bind("greeter", func(*Container, Params) (any, error) { return nil, errors.New("no locale") })
			},
			resolve: func(c *Container) error {
				_, err := c.Resolve("greeter")
				return err
			},
		},
		{
			name:  "wrong type",
			setup: func(c *Container) { c.Instance("greeter", &mailer{}) },
			resolve: func(c *Container) error {
				_, err := Resolve[greeter](c, "greeter")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.setup(c)
			if err := tt.resolve(c); !errors.Is(err, ErrNotInstantiable) {
				t.Fatalf("expected ErrNotInstantiable, got %v", err)
			}
		})
	}
}

func TestResolve_DetectsCycles(t *testing.T) {
	c := New()
	c.Bind("a", func(c *Container, _ Params) (any, error) { return c.Resolve("b") })
	c.Bind("b", func(c *Container, _ Params) (any, error) { return c.Resolve("a") })

	_, err := c.Resolve("a")
	if !errors.Is(err, ErrUnresolvableDependency) {
		t.Fatalf("expected cycle to be unresolvable, got %v", err)
	}
}

func TestRebinding_LastWriteWins(t *testing.T) {
	c := New()
	c.Instance("from", "old@hotel.test")
	c.Instance("from", "new@hotel.test")

	got, _ := Resolve[string](c, "from")
	if got != "new@hotel.test" {
		t.Errorf("got %q, want last registration", got)
	}
	if !c.Has("from") || len(c.Keys()) != 1 {
		t.Errorf("unexpected keys %v", c.Keys())
	}
}

func TestSingleton_ConcurrentResolutionBuildsOnce(t *testing.T) {
	c := New()
	var builds atomic.Int32
	Provide(c, "mailer", func(c *Container) (*mailer, error) {
		builds.Add(1)
		return &mailer{}, nil
	})

	var wg sync.WaitGroup
	results := make([]*mailer, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = MustResolve[*mailer](c, "mailer")
		}(i)
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Errorf("factory ran %d times, want 1", builds.Load())
	}
	for _, m := range results {
		if m != results[0] {
			t.Fatal("goroutines received different singleton instances")
		}
	}
}
