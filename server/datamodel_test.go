package main

import (
	"errors"
	"net/http"
	"testing"

	"github.com/offchat/chat/server/store/types"
)

func TestDecodeStoreError(t *testing.T) {
	ts := now()
	cases := []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{types.ErrDuplicate, http.StatusConflict},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrPermissionDenied, http.StatusForbidden},
		{types.ErrMalformed, http.StatusBadRequest},
		{types.ErrUnavailable, http.StatusServiceUnavailable},
		{types.ErrInternal, http.StatusInternalServerError},
		{types.ErrFailed, http.StatusInternalServerError},
		// A raw driver error means the store is unreachable.
		{errors.New("dial tcp 127.0.0.1:3306: connection refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := decodeStoreError(tc.err, "1", ts).Ctrl.Code; got != tc.code {
			t.Errorf("decodeStoreError(%v): expected %d, got %d", tc.err, tc.code, got)
		}
	}
}
