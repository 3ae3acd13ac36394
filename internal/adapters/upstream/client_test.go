package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/marquee/internal/adapters/upstream"
	"github.com/okian/marquee/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newClient(t *testing.T, handler http.Handler, opts ...upstream.Option) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := upstream.New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	Convey("Given an empty base url", t, func() {
		_, err := upstream.New("  ")

		Convey("Then construction fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFetchFilms(t *testing.T) {
	Convey("Given a catalogue serving films", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/movies", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"id":"1","title":"Heat","filmCompanyId":"c1","reviews":[10,8],"cost":60000000,"releaseYear":1995}]`)
		})
		c := newClient(t, mux)

		Convey("When films are fetched", func() {
			films, err := c.FetchFilms(context.Background())

			Convey("Then the records are decoded", func() {
				So(err, ShouldBeNil)
				So(films, ShouldResemble, []model.Film{{
					ID:            "1",
					Title:         "Heat",
					FilmCompanyID: "c1",
					Reviews:       []float64{10, 8},
					Cost:          60000000,
					ReleaseYear:   1995,
				}})
			})
		})
	})

	Convey("Given a catalogue returning an empty array", t, func() {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `[]`)
		}))

		Convey("Then an empty non-nil collection is returned", func() {
			films, err := c.FetchFilms(context.Background())
			So(err, ShouldBeNil)
			So(films, ShouldNotBeNil)
			So(films, ShouldBeEmpty)
		})
	})

	Convey("Given a catalogue returning null", t, func() {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `null`)
		}))

		Convey("Then it is a decode error", func() {
			_, err := c.FetchFilms(context.Background())
			So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given a catalogue returning an object", t, func() {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"movies":[]}`)
		}))

		Convey("Then it is a decode error", func() {
			_, err := c.FetchFilms(context.Background())
			So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given a catalogue returning 500", t, func() {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		Convey("Then it is a status error carrying the code", func() {
			_, err := c.FetchFilms(context.Background())
			So(errors.Is(err, upstream.ErrStatus), ShouldBeTrue)

			var se *upstream.StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.StatusCode, ShouldEqual, http.StatusInternalServerError)
			So(se.Endpoint, ShouldEqual, upstream.EndpointFilms)
		})
	})

	Convey("Given an unreachable catalogue", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c, err := upstream.New(url)
		So(err, ShouldBeNil)

		Convey("Then it is a transport error", func() {
			_, err := c.FetchFilms(context.Background())
			So(errors.Is(err, upstream.ErrTransport), ShouldBeTrue)
		})
	})

	Convey("Given a slow catalogue and a short timeout", t, func() {
		release := make(chan struct{})
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}), upstream.WithTimeout(20*time.Millisecond))
		defer close(release)

		Convey("Then the request fails as transport", func() {
			_, err := c.FetchFilms(context.Background())
			So(errors.Is(err, upstream.ErrTransport), ShouldBeTrue)
		})
	})

	Convey("Given a body larger than the client accepts", t, func() {
		body := `[{"id":"1","title":"Heat"}]`
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}), upstream.WithMaxBodyBytes(int64(len(body)-1)))

		Convey("Then it fails as too large rather than undecodable", func() {
			_, err := c.FetchFilms(context.Background())
			So(errors.Is(err, upstream.ErrBodyTooLarge), ShouldBeTrue)
			So(errors.Is(err, upstream.ErrDecode), ShouldBeFalse)
		})
	})

	Convey("Given a body exactly at the limit", t, func() {
		body := `[{"id":"1","title":"Heat"}]`
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}), upstream.WithMaxBodyBytes(int64(len(body))))

		Convey("Then it decodes", func() {
			films, err := c.FetchFilms(context.Background())
			So(err, ShouldBeNil)
			So(len(films), ShouldEqual, 1)
		})
	})
}

func TestFetchCompanies(t *testing.T) {
	Convey("Given custom endpoint paths", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/v2/companies", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `[{"id":"c1","name":"Acme"},{"id":"c2","name":"Globex"}]`)
		})
		c := newClient(t, mux, upstream.WithPaths("", "/v2/companies", ""))

		Convey("When companies are fetched", func() {
			companies, err := c.FetchCompanies(context.Background())

			Convey("Then both are decoded in order", func() {
				So(err, ShouldBeNil)
				So(companies, ShouldResemble, []model.Company{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}})
			})
		})
	})
}

func TestSubmitReview(t *testing.T) {
	Convey("Given a review endpoint", t, func() {
		var got map[string]any
		var method, contentType string
		mux := http.NewServeMux()
		mux.HandleFunc("/submitReview", func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			contentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = io.WriteString(w, `{"message":"Thank you for your review!"}`)
		})
		c := newClient(t, mux)

		Convey("When a review is posted without a film id", func() {
			msg, err := c.SubmitReview(context.Background(), upstream.SubmitRequest{Review: "great"})

			Convey("Then only the review field is sent", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, "Thank you for your review!")
				So(method, ShouldEqual, http.MethodPost)
				So(contentType, ShouldEqual, "application/json")
				So(got, ShouldResemble, map[string]any{"review": "great"})
			})
		})

		Convey("When a review is posted with a film id", func() {
			_, err := c.SubmitReview(context.Background(), upstream.SubmitRequest{Review: "ok", FilmID: "7"})

			Convey("Then the film id is sent too", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, map[string]any{"review": "ok", "filmId": "7"})
			})
		})
	})

	Convey("Given a review endpoint answering without a message", t, func() {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		}))

		Convey("Then it is a decode error", func() {
			_, err := c.SubmitReview(context.Background(), upstream.SubmitRequest{Review: "x"})
			So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given a review endpoint answering with plain text", t, func() {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `thanks`)
		}))

		Convey("Then it is a decode error", func() {
			_, err := c.SubmitReview(context.Background(), upstream.SubmitRequest{Review: "x"})
			So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given a review endpoint answering 503", t, func() {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"message":"down"}`)
		}))

		Convey("Then it is a status error", func() {
			_, err := c.SubmitReview(context.Background(), upstream.SubmitRequest{Review: "x"})
			So(errors.Is(err, upstream.ErrStatus), ShouldBeTrue)
		})
	})
}
