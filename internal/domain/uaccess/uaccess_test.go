package uaccess

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferRead(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		unmap   int
		want    int
		wantErr error
		wantOut string
	}{
		{name: "fully mapped", data: "abcdef", unmap: -1, want: 4, wantOut: "abcd"},
		{name: "unmapped tail", data: "abcdef", unmap: 2, want: 2, wantErr: ErrFault, wantOut: "ab"},
		{name: "source too short", data: "ab", unmap: -1, want: 2, wantErr: ErrFault, wantOut: "ab"},
		{name: "nothing mapped", data: "abcdef", unmap: 0, want: 0, wantErr: ErrFault, wantOut: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer([]byte(tt.data))
			if tt.unmap >= 0 {
				b.Unmap(tt.unmap)
			}

			p := make([]byte, 4)
			n, err := b.Read(p)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.wantOut, string(p[:n]))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBufferWrite(t *testing.T) {
	b := NewDestination(6)
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	b.Unmap(4)
	n, err = b.Write([]byte("def"))
	assert.ErrorIs(t, err, ErrFault)
	assert.Equal(t, 1, n)
	assert.Equal(t, "abcd", string(b.Bytes()))
	assert.Equal(t, 6, b.Len())
}

func TestUnmapNeverGrows(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))
	b.Unmap(2)
	b.Unmap(5)

	p := make([]byte, 6)
	n, err := b.Read(p)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, ErrFault)
}

func TestNegativeDestination(t *testing.T) {
	b := NewDestination(-3)
	assert.Zero(t, b.Len())
	n, err := b.Write(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyFrom(t *testing.T) {
	dst := make([]byte, 4)
	notCopied, err := CopyFrom(dst, bytes.NewReader([]byte("wxyz")))
	require.NoError(t, err)
	assert.Zero(t, notCopied)
	assert.Equal(t, "wxyz", string(dst))

	notCopied, err = CopyFrom(dst, bytes.NewReader([]byte("q")))
	assert.Equal(t, 3, notCopied)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

type stingyWriter struct{ n int }

func (w stingyWriter) Write(p []byte) (int, error) {
	return min(w.n, len(p)), nil
}

func TestCopyTo(t *testing.T) {
	var out bytes.Buffer
	notCopied, err := CopyTo(&out, []byte("hello"))
	require.NoError(t, err)
	assert.Zero(t, notCopied)
	assert.Equal(t, "hello", out.String())

	notCopied, err = CopyTo(stingyWriter{n: 2}, []byte("hello"))
	assert.Equal(t, 3, notCopied)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}
