package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilConfig is returned when a nil pointer is passed to Load.
var ErrNilConfig = errors.New("config: target must be a non-nil pointer to a struct")

var (
	loadDotEnvOnce sync.Once

	cacheMu sync.RWMutex
	cache   = make(map[reflect.Type]any)
)

// Load parses environment variables into the given struct pointer.
// The first call for a given type reads the environment; subsequent calls
// return the cached value. A .env file in the working directory is loaded
// once before the first parse, if present.
func Load(target any) error {
	if target == nil {
		return ErrNilConfig
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNilConfig
	}

	loadDotEnvOnce.Do(func() {
		// Missing .env is not an error; explicit env vars still apply.
		_ = godotenv.Load()
	})

	typ := v.Elem().Type()

	cacheMu.RLock()
	cached, ok := cache[typ]
	cacheMu.RUnlock()
	if ok {
		v.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	if err := env.Parse(target); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", typ, err)
	}

	cacheMu.Lock()
	cache[typ] = v.Elem().Interface()
	cacheMu.Unlock()

	return nil
}

// MustLoad is like Load but panics on failure. Intended for application
// startup where a missing required variable is unrecoverable.
func MustLoad(target any) {
	if err := Load(target); err != nil {
		panic(err)
	}
}
