package registry

import (
	"testing"

	"github.com/rivermist/vsthost/pkg/backend"
	"github.com/rivermist/vsthost/pkg/backendtest"
)

func TestRegistryInfoRoundTrip(t *testing.T) {
	r := New()
	if _, ok := r.Info("synth1"); ok {
		t.Error("expected no cached info before StoreInfo")
	}

	info := backend.PluginInfo{Path: "synth1", Name: "Synth One", NumParameters: 4}
	r.StoreInfo(info)

	got, ok := r.Info("synth1")
	if !ok {
		t.Fatal("expected cached info after StoreInfo")
	}
	if got.Name != info.Name {
		t.Errorf("name: got %q want %q", got.Name, info.Name)
	}
}

func TestRegistryFactoryRoundTrip(t *testing.T) {
	r := New()
	if _, ok := r.Factory(backend.KindV2); ok {
		t.Error("expected no cached factory before RegisterFactory")
	}

	r.RegisterFactory(backend.KindV2, backendtest.Factory{})

	f, ok := r.Factory(backend.KindV2)
	if !ok {
		t.Fatal("expected cached factory after RegisterFactory")
	}
	if _, err := f.Create(backend.PluginInfo{NumParameters: 1}); err != nil {
		t.Errorf("create via cached factory: %v", err)
	}
}

func TestRegistryClear(t *testing.T) {
	r := New()
	r.StoreInfo(backend.PluginInfo{Path: "a"})
	r.RegisterFactory(backend.KindV3, backendtest.Factory{})

	r.Clear()

	if _, ok := r.Info("a"); ok {
		t.Error("expected info cache empty after Clear")
	}
	if _, ok := r.Factory(backend.KindV3); ok {
		t.Error("expected factory cache empty after Clear")
	}
}

func TestRegistryForgetInfo(t *testing.T) {
	r := New()
	r.StoreInfo(backend.PluginInfo{Path: "a"})
	r.StoreInfo(backend.PluginInfo{Path: "b"})

	r.ForgetInfo("a")

	if _, ok := r.Info("a"); ok {
		t.Error("expected info for \"a\" to be forgotten")
	}
	if _, ok := r.Info("b"); !ok {
		t.Error("expected info for \"b\" to remain cached")
	}
}
