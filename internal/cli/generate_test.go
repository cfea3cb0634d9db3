package cli

import (
	"strings"
	"testing"

	"storyglow/internal/config"
)

func TestFilterSpecs(t *testing.T) {
	specs := []config.VideoSpec{
		{ID: "emma"},
		{ID: "liam"},
		{ID: "ava"},
	}

	t.Run("no ids keeps everything", func(t *testing.T) {
		got, err := filterSpecs(specs, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d specs", len(got))
		}
	})

	t.Run("selects in argument order", func(t *testing.T) {
		got, err := filterSpecs(specs, []string{"ava", "emma"})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != "ava" || got[1].ID != "emma" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("unknown id fails", func(t *testing.T) {
		_, err := filterSpecs(specs, []string{"nobody"})
		if err == nil || !strings.Contains(err.Error(), "nobody") {
			t.Fatalf("error = %v", err)
		}
	})
}
