package epg_test

import (
	"errors"
	"testing"

	"github.com/alorle/epg-grabber/internal/epg"
)

func TestNewChannel(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		channelName string
		logo        string
		wantID      string
		wantName    string
		wantLogo    string
		wantError   error
	}{
		{
			name:        "valid channel with all fields",
			id:          "143",
			channelName: "Colors HD",
			logo:        "https://example.com/colors.png",
			wantID:      "143",
			wantName:    "Colors HD",
			wantLogo:    "https://example.com/colors.png",
		},
		{
			name:        "valid channel with trimmed whitespace",
			id:          "  143  ",
			channelName: "  Colors HD  ",
			logo:        "  https://example.com/colors.png  ",
			wantID:      "143",
			wantName:    "Colors HD",
			wantLogo:    "https://example.com/colors.png",
		},
		{
			name:        "valid channel without logo",
			id:          "143",
			channelName: "Colors HD",
			logo:        "",
			wantID:      "143",
			wantName:    "Colors HD",
			wantLogo:    "",
		},
		{
			name:        "empty id",
			id:          "",
			channelName: "Colors HD",
			wantError:   epg.ErrEmptyChannelID,
		},
		{
			name:        "whitespace only id",
			id:          " \t\n ",
			channelName: "Colors HD",
			wantError:   epg.ErrEmptyChannelID,
		},
		{
			name:        "empty name",
			id:          "143",
			channelName: "",
			wantError:   epg.ErrEmptyChannelName,
		},
		{
			name:        "newlines in name",
			id:          "143",
			channelName: "\n\n",
			wantError:   epg.ErrEmptyChannelName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := epg.NewChannel(tt.id, tt.channelName, tt.logo)

			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Errorf("NewChannel() error = %v, wantError %v", err, tt.wantError)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewChannel() unexpected error = %v", err)
			}

			if got := ch.ID(); got != tt.wantID {
				t.Errorf("Channel.ID() = %q, want %q", got, tt.wantID)
			}
			if got := ch.Name(); got != tt.wantName {
				t.Errorf("Channel.Name() = %q, want %q", got, tt.wantName)
			}
			if got := ch.Logo(); got != tt.wantLogo {
				t.Errorf("Channel.Logo() = %q, want %q", got, tt.wantLogo)
			}
		})
	}
}

func TestEPGDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{name: "ErrEmptyChannelID", err: epg.ErrEmptyChannelID, msg: "epg channel id cannot be empty"},
		{name: "ErrEmptyChannelName", err: epg.ErrEmptyChannelName, msg: "epg channel name cannot be empty"},
		{name: "ErrEmptyTitle", err: epg.ErrEmptyTitle, msg: "epg programme title cannot be empty"},
		{name: "ErrEmptyGuide", err: epg.ErrEmptyGuide, msg: "epg channel has no programmes"},
		{name: "ErrCatalogUnavailable", err: epg.ErrCatalogUnavailable, msg: "channel catalog unavailable"},
		{name: "ErrSerialization", err: epg.ErrSerialization, msg: "guide serialization failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("error message = %q, want %q", tt.err.Error(), tt.msg)
			}
		})
	}
}
