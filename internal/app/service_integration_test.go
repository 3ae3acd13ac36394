package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/okian/marquee/internal/adapters/upstream"
	service "github.com/okian/marquee/internal/app"
	"github.com/okian/marquee/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// barrier releases every waiter once n parties have arrived.
type barrier struct {
	mu      sync.Mutex
	arrived int
	n       int
	done    chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{n: n, done: make(chan struct{})}
}

func (b *barrier) wait(timeout time.Duration) bool {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.n {
		close(b.done)
	}
	b.mu.Unlock()

	select {
	case <-b.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

type catalogueServer struct {
	mu         sync.Mutex
	films      string
	companies  string
	filmStatus int
	barrier    *barrier
	reviews    []map[string]any
	reviewResp string
	reviewCode int
}

func (s *catalogueServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/movies", func(w http.ResponseWriter, r *http.Request) {
		if s.barrier != nil && !s.barrier.wait(2*time.Second) {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.filmStatus != 0 {
			w.WriteHeader(s.filmStatus)
			return
		}
		_, _ = io.WriteString(w, s.films)
	})
	mux.HandleFunc("/movieCompanies", func(w http.ResponseWriter, r *http.Request) {
		if s.barrier != nil && !s.barrier.wait(2*time.Second) {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		_, _ = io.WriteString(w, s.companies)
	})
	mux.HandleFunc("/submitReview", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.reviews = append(s.reviews, body)
		if s.reviewCode != 0 {
			w.WriteHeader(s.reviewCode)
		}
		_, _ = io.WriteString(w, s.reviewResp)
	})
	return mux
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a catalogue server that only answers when both fetches are in flight", t, func() {
		cs := &catalogueServer{
			films:      `[{"id":"1","title":"Heat","filmCompanyId":"c1","reviews":[10,8],"cost":60000000,"releaseYear":1995},{"id":"2","title":"Alien","filmCompanyId":"c9","reviews":[],"cost":11000000,"releaseYear":1979}]`,
			companies:  `[{"id":"c1","name":"Acme"}]`,
			barrier:    newBarrier(2),
			reviewResp: `{"message":"Thank you for your review!"}`,
		}
		srv := httptest.NewServer(cs.handler())
		defer srv.Close()

		client, err := upstream.New(srv.URL)
		So(err, ShouldBeNil)
		svc := service.New(client)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When the service starts", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then the initial refresh fetched films and companies concurrently", func() {
				So(svc.Generation(ctx), ShouldEqual, 1)
				So(svc.Count(ctx), ShouldEqual, 2)
			})

			Convey("And listings are derived from the fetched data", func() {
				page, err := svc.ListingsForPage(ctx, 0, 10)
				So(err, ShouldBeNil)
				So(page, ShouldResemble, []model.Listing{
					{FilmID: "1", Title: "Heat", AverageReviewValue: 9, AverageReviewScore: "9.0", ProductionCompany: "Acme"},
					{FilmID: "2", Title: "Alien", AverageReviewValue: 0, AverageReviewScore: "0", ProductionCompany: "Unknown"},
				})
			})

			Convey("And a review round trip surfaces the server message", func() {
				resp := svc.SubmitReview(ctx, "1", "Great heist film")
				So(resp, ShouldResemble, model.ReviewResponse{Success: true, Message: "Thank you for your review!"})
				So(cs.reviews, ShouldResemble, []map[string]any{{"review": "Great heist film"}})
			})
		})
	})

	Convey("Given a populated service whose films endpoint starts failing", t, func() {
		cs := &catalogueServer{
			films:      `[{"id":"1","title":"Heat","filmCompanyId":"c1","reviews":[8,6]}]`,
			companies:  `[{"id":"c1","name":"Acme"}]`,
			reviewResp: `{"message":"ok"}`,
		}
		srv := httptest.NewServer(cs.handler())
		defer srv.Close()

		client, err := upstream.New(srv.URL)
		So(err, ShouldBeNil)
		svc := service.New(client)
		ctx := context.Background()
		So(svc.Refresh(ctx), ShouldBeNil)

		Convey("When the films endpoint returns 500", func() {
			cs.mu.Lock()
			cs.filmStatus = http.StatusInternalServerError
			cs.mu.Unlock()

			err := svc.Refresh(ctx)

			Convey("Then the refresh fails and the old generation is served", func() {
				So(err, ShouldNotBeNil)
				So(svc.Generation(ctx), ShouldEqual, 1)
				page, err := svc.ListingsForPage(ctx, 0, 1)
				So(err, ShouldBeNil)
				So(page[0].AverageReviewScore, ShouldEqual, "7.0")
			})
		})

		Convey("When the films endpoint returns null", func() {
			cs.mu.Lock()
			cs.films = `null`
			cs.mu.Unlock()

			Convey("Then the refresh fails", func() {
				So(svc.Refresh(ctx), ShouldNotBeNil)
				So(svc.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the review endpoint misbehaves", func() {
			Convey("Then a 500 is a failed submission", func() {
				cs.mu.Lock()
				cs.reviewCode = http.StatusInternalServerError
				cs.mu.Unlock()
				So(svc.SubmitReview(ctx, "1", "x").Success, ShouldBeFalse)
			})

			Convey("Then a garbage body is a failed submission", func() {
				cs.mu.Lock()
				cs.reviewResp = `<html>`
				cs.mu.Unlock()
				So(svc.SubmitReview(ctx, "1", "x").Success, ShouldBeFalse)
			})

			Convey("Then a stopped server is a failed submission", func() {
				srv.Close()
				So(svc.SubmitReview(ctx, "1", "x"), ShouldResemble, model.ReviewResponse{Success: false})
			})
		})
	})
}
