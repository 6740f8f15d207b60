package iso7816

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStatusWord_Triggering(t *testing.T) {
	tests := []struct {
		sw     StatusWord
		isTrig bool
	}{
		{NewStatusWord(0x62, 0x02), true},  // Lower bound
		{NewStatusWord(0x62, 0x80), true},  // Upper bound
		{NewStatusWord(0x64, 0x10), true},  // Error triggering
		{NewStatusWord(0x62, 0x01), false}, // Invalid (< 02)
		{NewStatusWord(0x62, 0x81), false}, // Invalid (> 80)
	}

	for _, tt := range tests {
		if got := tt.sw.IsTriggeringByCard(); got != tt.isTrig {
			t.Errorf("SW %04X IsTriggeringByCard = %v, want %v", uint16(tt.sw), got, tt.isTrig)
		}
	}
}

func TestStatusWord_Counter(t *testing.T) {
	tests := []struct {
		sw        StatusWord
		isCounter bool
	}{
		{NewStatusWord(0x63, 0xC0), true},
		{NewStatusWord(0x63, 0xCF), true},
		{NewStatusWord(0x63, 0x00), false},
		{NewStatusWord(0x63, 0x81), false},
	}

	for _, tt := range tests {
		if got := tt.sw.IsCounter(); got != tt.isCounter {
			t.Errorf("SW %04X IsCounter = %v, want %v", uint16(tt.sw), got, tt.isCounter)
		}
	}
}

func TestStatusWord_Classification(t *testing.T) {
	tests := []struct {
		sw          StatusWord
		isSuccess   bool
		isWarning   bool
		isError     bool
		hasMoreData bool
	}{
		{SW_NO_ERROR, true, false, false, false},
		{NewStatusWord(0x61, 0x10), true, false, false, true},
		{NewStatusWord(0x9F, 0x10), false, false, false, true},
		{NewStatusWord(0x91, 0x00), false, false, false, false},
		{SW_WARN_EOF_REACHED, false, true, false, false},
		{NewStatusWord(0x63, 0xC2), false, true, false, false},
		{SW_ERR_WRONG_LENGTH, false, false, true, false},
		{SW_ERR_FILE_NOT_FOUND, false, false, true, false},
	}

	for _, tt := range tests {
		if got := tt.sw.IsSuccess(); got != tt.isSuccess {
			t.Errorf("SW %04X IsSuccess = %v, want %v", uint16(tt.sw), got, tt.isSuccess)
		}
		if got := tt.sw.IsWarning(); got != tt.isWarning {
			t.Errorf("SW %04X IsWarning = %v, want %v", uint16(tt.sw), got, tt.isWarning)
		}
		if got := tt.sw.IsError(); got != tt.isError {
			t.Errorf("SW %04X IsError = %v, want %v", uint16(tt.sw), got, tt.isError)
		}
		if got := tt.sw.HasMoreData(); got != tt.hasMoreData {
			t.Errorf("SW %04X HasMoreData = %v, want %v", uint16(tt.sw), got, tt.hasMoreData)
		}
	}

	if !NewStatusWord(0x6C, 0x10).IsWrongLength() {
		t.Error("6C10 should be a wrong length status")
	}
	if !NewStatusWord(0x91, 0x20).IsProactive() {
		t.Error("9120 should be a proactive status")
	}
}

func TestStatusWord_Verbose(t *testing.T) {
	tests := []struct {
		sw       StatusWord
		contains string
	}{
		{NewStatusWord(0x62, 0x10), "Card expects query of 16 bytes"},
		{NewStatusWord(0x61, 0x20), "32 bytes available"},
		{NewStatusWord(0x9F, 0x20), "(UICC), 32 bytes available"},
		{NewStatusWord(0x6C, 0x05), "correct Le is 5"},
		{NewStatusWord(0x91, 0x0A), "proactive command of 10 bytes"},
		{SW_WARN_TRIGGERING_BY_CARD, "Card expects query of 2 bytes"},
		{SW_ERR_FILE_NOT_FOUND, "[6A82] SW_ERR_FILE_NOT_FOUND"},
		{NewStatusWord(0x69, 0x99), "[6999] Checking Error: Command not allowed"},
	}

	for _, tt := range tests {
		got := tt.sw.Verbose()
		if !strings.Contains(got, tt.contains) {
			t.Errorf("Verbose(%04X) = %q; want containing %q", uint16(tt.sw), got, tt.contains)
		}
	}
}

func TestStatusWord_String(t *testing.T) {
	if got := SW_NO_ERROR.String(); got != "SW_NO_ERROR" {
		t.Errorf("String() = %q", got)
	}
	if got := NewStatusWord(0x12, 0x34).String(); got != "SW_1234" {
		t.Errorf("String() = %q", got)
	}
}

func TestStatusError(t *testing.T) {
	err := fmt.Errorf("select: %w", NewStatusError("SELECT", SW_ERR_FILE_NOT_FOUND))

	if !errors.Is(err, ErrCardRejected) {
		t.Fatalf("errors.Is(%v, ErrCardRejected) = false", err)
	}

	sw, ok := StatusOf(err)
	if !ok || sw != SW_ERR_FILE_NOT_FOUND {
		t.Errorf("StatusOf = %04X, %v", uint16(sw), ok)
	}
	if !strings.Contains(err.Error(), "SELECT: card returned [6A82]") {
		t.Errorf("Error() = %q", err.Error())
	}

	if _, ok := StatusOf(errors.New("plain")); ok {
		t.Error("StatusOf should fail on errors without status")
	}
}
