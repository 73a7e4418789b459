package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/autoforge/internal"
)

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("first status wins", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := internal.NewResponseWriter(rec, false)

		rw.WriteHeader(http.StatusUnprocessableEntity)
		rw.WriteHeader(http.StatusOK)

		require.True(t, rw.Written())
		require.Equal(t, http.StatusUnprocessableEntity, rw.Status())
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("htmx always gets 200", func(t *testing.T) {
		t.Parallel()
		for _, code := range []int{http.StatusFound, http.StatusNotFound, http.StatusConflict} {
			rec := httptest.NewRecorder()
			rw := internal.NewResponseWriter(rec, true)
			rw.WriteHeader(code)
			require.Equal(t, code, rw.Status())
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("hooks run once before headers", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := internal.NewResponseWriter(rec, false)

		var order []int
		rw.OnBeforeWrite(func() {
			order = append(order, 1)
			http.SetCookie(rw, &http.Cookie{Name: "_flash", Value: "x"})
		})
		rw.OnBeforeWrite(func() { order = append(order, 2) })

		n, err := rw.Write([]byte("hello"))
		require.NoError(t, err)
		_, err = rw.Write([]byte(" world"))
		require.NoError(t, err)

		require.Equal(t, 5, n)
		require.Equal(t, []int{1, 2}, order)
		require.Equal(t, int64(11), rw.Size())
		require.Equal(t, "hello world", rec.Body.String())
		require.Len(t, rec.Result().Cookies(), 1)
	})

	t.Run("flush and unwrap", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		rw := internal.NewResponseWriter(rec, false)
		rw.Flush()
		require.True(t, rec.Flushed)
		require.Equal(t, http.ResponseWriter(rec), rw.Unwrap())
	})
}
