package core

import (
	"testing"

	"github.com/0xRadioAc7iv/minibitcask/internal/protocol"
)

func TestFitsReply(t *testing.T) {
	small := protocol.Row{Key: []byte("k"), Value: []byte("v")}
	huge := protocol.Row{Key: []byte("k"), Value: make([]byte, 1<<20)}

	tests := []struct {
		name string
		n    int
		size int
		row  protocol.Row
		want bool
	}{
		{"first row always fits", 0, 0, huge, true},
		{"small row under byte cap", 1, 100, small, true},
		{"row crossing byte cap", 1, MaxReplyBytes - 10, huge, false},
		{"row exactly at byte cap", 1, MaxReplyBytes - protocol.RowSize(small), small, true},
		{"row count cap", MaxRowsPerReply, 0, small, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fitsReply(tt.n, tt.size, tt.row); got != tt.want {
				t.Fatalf("fitsReply(%d, %d, %d bytes) = %v, want %v", tt.n, tt.size, protocol.RowSize(tt.row), got, tt.want)
			}
		})
	}
}
