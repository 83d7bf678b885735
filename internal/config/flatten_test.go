package config

import (
	"slices"
	"strings"
	"testing"
)

func TestFlatten_Nested(t *testing.T) {
	m := map[string]any{
		"store": map[string]any{
			"backend": "redis",
			"tables": map[string]any{
				"inventory": "store-inventory",
			},
		},
		"log_level": "info",
	}
	got := Flatten(m)
	if got["store.backend"] != "redis" {
		t.Errorf("expected store.backend=redis, got %v", got["store.backend"])
	}
	if got["store.tables.inventory"] != "store-inventory" {
		t.Errorf("expected store.tables.inventory=store-inventory, got %v", got["store.tables.inventory"])
	}
	if got["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", got["log_level"])
	}
	if len(got) != 3 {
		t.Errorf("expected 3 keys, got %d", len(got))
	}
}

func TestFlatten_ListsAreLeaves(t *testing.T) {
	m := map[string]any{
		"http": map[string]any{
			"cors_origins": []any{"http://localhost:3000"},
		},
	}
	got := Flatten(m)
	origins, ok := got["http.cors_origins"].([]any)
	if !ok || len(origins) != 1 {
		t.Fatalf("expected list leaf, got %#v", got["http.cors_origins"])
	}
}

func TestFlatten_EmptyNestedMap(t *testing.T) {
	got := Flatten(map[string]any{"a": map[string]any{}})
	if len(got) != 0 {
		t.Errorf("expected 0 keys (empty nested map produces nothing), got %d", len(got))
	}
}

func TestFlatten_MixedTypes(t *testing.T) {
	m := map[string]any{
		"str":    "hello",
		"num":    42.0,
		"bool":   true,
		"nested": map[string]any{"val": "inside"},
	}
	got := Flatten(m)
	if got["str"] != "hello" || got["num"] != 42.0 || got["bool"] != true || got["nested.val"] != "inside" {
		t.Errorf("unexpected flatten result: %v", got)
	}
}

func TestUnflatten_DeeplyNested(t *testing.T) {
	got, err := Unflatten(map[string]any{"a.b.c": "deep", "a.x": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	a, ok := got["a"].(map[string]any)
	if !ok {
		t.Fatalf("expected a to be map, got %T", got["a"])
	}
	b, ok := a["b"].(map[string]any)
	if !ok {
		t.Fatalf("expected a.b to be map, got %T", a["b"])
	}
	if b["c"] != "deep" {
		t.Errorf("expected a.b.c=deep, got %v", b["c"])
	}
	if a["x"] != 1.0 {
		t.Errorf("expected a.x=1, got %v", a["x"])
	}
}

func TestUnflatten_ValueAndSectionConflict(t *testing.T) {
	_, err := Unflatten(map[string]any{"store": "redis", "store.backend": "redis"})
	if err == nil || !strings.Contains(err.Error(), "conflicts with value at store") {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestKeys_FollowConfigFields(t *testing.T) {
	keys := Keys()
	for _, want := range []string{
		"log_level",
		"http.cors_origins",
		"stream.heartbeat_interval_seconds",
		"store.tables.staff_schedules",
		"telegram.token",
		"workflow.timeout_seconds",
	} {
		if !IsKnownKey(want) {
			t.Errorf("expected %s to be a config key", want)
		}
	}
	if !slices.IsSorted(keys) {
		t.Error("keys are not sorted")
	}
	if IsKnownKey("store") || IsKnownKey("store.tables") || IsKnownKey("feature.enabled") {
		t.Error("sections and unknown names must not be keys")
	}

	flat, err := ListValues(Default(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != len(keys) {
		t.Errorf("config lists %d values but schema has %d keys", len(flat), len(keys))
	}
	for k := range flat {
		if !IsKnownKey(k) {
			t.Errorf("listed key %s missing from schema", k)
		}
	}
}

func TestSecretKeysFromTags(t *testing.T) {
	for _, k := range []string{"telegram.token", "store.redis_password"} {
		if !IsSecretKey(k) {
			t.Errorf("expected %s to be secret", k)
		}
	}
	if IsSecretKey("store.redis_addr") {
		t.Error("store.redis_addr is not a secret")
	}
}

func TestRoundTrip_FlattenUnflatten(t *testing.T) {
	original := map[string]any{
		"data_dir": "/home/test/.storeops",
		"workflow": map[string]any{
			"mode":          "remote",
			"url":           "http://workflow:8000",
			"state_machine": "StoreOperationsWorkflow",
		},
		"telegram": map[string]any{
			"token": "bot-token-abc",
		},
	}

	restored, err := Unflatten(Flatten(original))
	if err != nil {
		t.Fatal(err)
	}

	if restored["data_dir"] != original["data_dir"] {
		t.Errorf("data_dir mismatch: %v != %v", restored["data_dir"], original["data_dir"])
	}
	wf := restored["workflow"].(map[string]any)
	origWF := original["workflow"].(map[string]any)
	for _, k := range []string{"mode", "url", "state_machine"} {
		if wf[k] != origWF[k] {
			t.Errorf("workflow.%s mismatch: %v != %v", k, wf[k], origWF[k])
		}
	}
	if restored["telegram"].(map[string]any)["token"] != "bot-token-abc" {
		t.Errorf("telegram.token mismatch")
	}
}

func TestMaskSecrets(t *testing.T) {
	flat := map[string]any{
		"store.backend":        "redis",
		"store.redis_password": "s3cret-pass-1234",
		"telegram.token":       "123456:ABCdefGHIjkl",
		"log_level":            "info",
	}
	got := MaskSecrets(flat)

	if got["store.backend"] != "redis" || got["log_level"] != "info" {
		t.Errorf("non-secrets changed: %v", got)
	}
	if got["store.redis_password"] != "***1234" {
		t.Errorf("expected store.redis_password=***1234, got %v", got["store.redis_password"])
	}
	if got["telegram.token"] != "***Ijkl" {
		t.Errorf("expected telegram.token=***Ijkl, got %v", got["telegram.token"])
	}
	if !IsSecretKey("telegram.token") || IsSecretKey("store.backend") {
		t.Error("IsSecretKey disagrees with the secret key set")
	}
}

func TestMaskSecrets_ShortAndEmpty(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"", ""},
		{"ab", "***ab"},
		{"abcd", "***abcd"},
		{nil, nil},
	}
	for _, tt := range tests {
		got := MaskSecrets(map[string]any{"telegram.token": tt.in})
		if got["telegram.token"] != tt.want {
			t.Errorf("MaskSecrets(%v) = %v, want %v", tt.in, got["telegram.token"], tt.want)
		}
	}
}
