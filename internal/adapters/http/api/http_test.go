package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/artchsh/portfolio/internal/adapters/http/api"
	service "github.com/artchsh/portfolio/internal/app"
	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// Mock implementations for testing
type mockRelay struct {
	mu   sync.Mutex
	seen map[string]bool
	sent []model.ContactSubmission
	err  error
}

func (m *mockRelay) Relay(ctx context.Context, id string, s model.ContactSubmission) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if id != "" && m.seen[id] {
		return true, nil
	}
	if m.err != nil {
		return false, m.err
	}
	if id != "" {
		m.seen[id] = true
	}
	m.sent = append(m.sent, s)
	return false, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type contactReply struct {
	State        string               `json:"state"`
	Notification contact.Notification `json:"notification"`
	Errors       map[string]string    `json:"errors"`
	Duplicate    bool                 `json:"duplicate"`
	Code         string               `json:"code"`
}

func postContact(h http.HandlerFunc, body string) (*httptest.ResponseRecorder, contactReply) {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	var reply contactReply
	_ = json.Unmarshal(w.Body.Bytes(), &reply)
	return w, reply
}

const validBody = `{"name":"Artyom","email":"artyom@example.com","message":"Hello, I'd like to collaborate."}`

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		relay := &mockRelay{}
		server := api.NewServer(relay, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux)

			Convey("Then health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And contact endpoint should be accessible", func() {
				req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(`{}`))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})

			Convey("And contact requests show up in the metrics", func() {
				mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/contact", strings.NewReader(validBody)))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
				So(w.Body.String(), ShouldContainSubstring, `portfolio_site_http_requests_total{endpoint="contact",method="POST",status_code="202"}`)
			})
		})

		Convey("When registering on a nil mux", func() {
			Convey("Then it should panic", func() {
				So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
			})
		})
	})
}

func TestContactHandler_HandlePostContact(t *testing.T) {
	Convey("Given a contact handler", t, func() {
		relay := &mockRelay{}
		handler := api.NewContactHandler(relay, 0, nil).HandlePostContact

		Convey("When the submission is valid", func() {
			w, reply := postContact(handler, validBody)

			Convey("Then it is accepted and relayed", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(reply.State, ShouldEqual, "succeeded")
				So(reply.Notification, ShouldResemble, contact.NotifySent)
				So(len(relay.sent), ShouldEqual, 1)
				So(relay.sent[0].Email, ShouldEqual, "artyom@example.com")
			})
		})

		Convey("When only the message is too short", func() {
			w, reply := postContact(handler, `{"name":"Jo","email":"a@b.com","message":"short"}`)

			Convey("Then only the message error is returned and nothing is sent", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(reply.State, ShouldEqual, "idle")
				So(reply.Notification, ShouldResemble, contact.NotifyInvalid)
				So(reply.Errors, ShouldResemble, map[string]string{"message": contact.MsgMessage})
				So(relay.sent, ShouldBeEmpty)
			})
		})

		Convey("When every field is invalid", func() {
			w, reply := postContact(handler, `{"name":"J","email":"nope","message":""}`)

			Convey("Then every field is reported", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(len(reply.Errors), ShouldEqual, 3)
				So(reply.Errors["name"], ShouldEqual, contact.MsgName)
				So(reply.Errors["email"], ShouldEqual, contact.MsgEmail)
			})
		})

		Convey("When the same submission id is posted twice", func() {
			body := `{"name":"Artyom","email":"artyom@example.com","message":"Hello, I'd like to collaborate.","submission_id":"f-1"}`
			first, _ := postContact(handler, body)
			second, reply := postContact(handler, body)

			Convey("Then the second is acknowledged as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(reply.Duplicate, ShouldBeTrue)
				So(reply.State, ShouldEqual, "succeeded")
				So(len(relay.sent), ShouldEqual, 1)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":`))
			w := httptest.NewRecorder()
			handler(w, req)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var resp map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the body is too large", func() {
			small := api.NewContactHandler(relay, 16, nil).HandlePostContact
			w, _ := postContact(small, validBody)

			Convey("Then it should return payload too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
			w := httptest.NewRecorder()
			handler(w, req)

			Convey("Then it should return method not allowed", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
			})
		})

		Convey("When the dispatch queue is full", func() {
			relay.err = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			w, reply := postContact(handler, validBody)

			Convey("Then it should return too many requests status", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Header().Get("Retry-After"), ShouldEqual, "1")
				So(reply.Code, ShouldEqual, "backpressure")
				So(reply.State, ShouldEqual, "failed")
			})
		})

		Convey("When the service is stopped", func() {
			relay.err = service.ErrStopped
			w, _ := postContact(handler, validBody)

			Convey("Then it should return service unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the client goes away while the submission is queued", func() {
			relay.err = &contact.TransmissionError{Err: context.Canceled}
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(validBody)).WithContext(ctx)
			w := httptest.NewRecorder()
			handler(w, req)

			Convey("Then it is not reported as a relay failure", func() {
				So(w.Code, ShouldEqual, http.StatusRequestTimeout)
				So(w.Body.String(), ShouldContainSubstring, `"code":"abandoned"`)
			})
		})

		Convey("When the relay times out", func() {
			relay.err = &contact.TransmissionError{Err: fmt.Errorf("relay transport: %w", context.DeadlineExceeded)}
			w, reply := postContact(handler, validBody)

			Convey("Then it is a relay failure", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(reply.Code, ShouldEqual, "relay_failed")
			})
		})

		Convey("When the relay cannot be reached", func() {
			relay.err = &contact.TransmissionError{Err: errors.New("relay transport: connection refused")}
			w, reply := postContact(handler, validBody)

			Convey("Then it should return bad gateway with the failure toast", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(reply.State, ShouldEqual, "failed")
				So(reply.Notification, ShouldResemble, contact.NotifyFailed)
				So(reply.Code, ShouldEqual, "relay_failed")
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()
			handler.HandleHealth(w, req)

			Convey("Then it should return OK status", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When posting to it", func() {
			req := httptest.NewRequest("POST", "/healthz", nil)
			w := httptest.NewRecorder()
			handler.HandleHealth(w, req)

			Convey("Then it should refuse the method", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]interface{}{
				"queueLength": 3,
				"workerCount": 4,
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()
			handler.HandleStats(w, req)

			Convey("Then it should return stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				err := json.NewDecoder(w.Body).Decode(&response)
				So(err, ShouldBeNil)
				So(response["queueLength"], ShouldEqual, float64(3))
				So(response["workerCount"], ShouldEqual, float64(4))
			})
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("unexpected EOF")
		wrapped := api.WrapKind("api.post_contact", api.ErrBadRequest, cause)
		bare := api.NewKind("api.post_contact", api.ErrBackpressure)

		Convey("Then both the kind and the cause match", func() {
			So(errors.Is(wrapped, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(wrapped, cause), ShouldBeTrue)
			So(wrapped.Error(), ShouldEqual, "api.post_contact: bad request: unexpected EOF")
		})

		Convey("And an unavailable service keeps its cause", func() {
			err := api.WrapKind("api.post_contact", api.ErrUnavailable, service.ErrStopped)
			So(errors.Is(err, api.ErrUnavailable), ShouldBeTrue)
			So(errors.Is(err, service.ErrStopped), ShouldBeTrue)
		})

		Convey("And a bare kind has no cause", func() {
			So(errors.Is(bare, api.ErrBackpressure), ShouldBeTrue)
			So(bare.Error(), ShouldEqual, "api.post_contact: backpressure")
		})
	})
}

func TestErrorType(t *testing.T) {
	Convey("Given HTTP status codes", t, func() {
		cases := []struct {
			code int
			want string
		}{
			{http.StatusBadGateway, "upstream_error"},
			{http.StatusInternalServerError, "server_error"},
			{http.StatusTooManyRequests, "rate_limit"},
			{http.StatusUnprocessableEntity, "validation_error"},
			{http.StatusNotFound, "not_found"},
			{http.StatusBadRequest, "client_error"},
			{http.StatusOK, "unknown"},
		}
		for _, c := range cases {
			Convey(fmt.Sprintf("Then %d maps to %s", c.code, c.want), func() {
				So(api.ErrorType(c.code), ShouldEqual, c.want)
			})
		}
	})
}
