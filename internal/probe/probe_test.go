package probe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	convey "github.com/smartystreets/goconvey/convey"

	"github.com/artchsh/portfolio/internal/domain/contact"
	"github.com/artchsh/portfolio/internal/domain/model"
	"github.com/artchsh/portfolio/internal/probe"
)

type fakeServer struct {
	mu     sync.Mutex
	seen   map[string]bool
	posts  int
	status int
	bodies []map[string]string
}

func newFakeServer() *fakeServer {
	return &fakeServer{seen: map[string]bool{}}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts++

	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.bodies = append(f.bodies, body)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"state":"failed","code":"relay_failed"}`))
		return
	}
	id := body["submission_id"]
	if id != "" && f.seen[id] {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"state":"succeeded","duplicate":true}`))
		return
	}
	f.seen[id] = true
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"state":"succeeded"}`))
}

func (f *fakeServer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

func (f *fakeServer) body(i int) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[i]
}

func validSubmission() model.ContactSubmission {
	return model.ContactSubmission{
		Name:    "Artyom",
		Email:   "artyom@example.com",
		Message: "Hello, I'd like to collaborate.",
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running contact endpoint", t, func() {
		fake := newFakeServer()
		srv := httptest.NewServer(fake)
		defer srv.Close()

		cfg := &probe.Config{
			BaseURL:      srv.URL + "/",
			Submission:   validSubmission(),
			SubmissionID: "probe-1",
			Repeat:       1,
			Timeout:      2 * time.Second,
		}
		var out bytes.Buffer

		convey.Convey("When a valid submission is posted", func() {
			err := probe.Run(context.Background(), cfg, &out)

			convey.Convey("Then the success toast is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fake.count(), convey.ShouldEqual, 1)
				convey.So(out.String(), convey.ShouldContainSubstring, "[success] Message Sent!")
				convey.So(out.String(), convey.ShouldContainSubstring, "HTTP 202")
				convey.So(fake.body(0)["submission_id"], convey.ShouldEqual, "probe-1")
				convey.So(fake.body(0)["name"], convey.ShouldEqual, "Artyom")
			})
		})

		convey.Convey("When the same id is repeated", func() {
			cfg.Repeat = 3
			err := probe.Run(context.Background(), cfg, &out)

			convey.Convey("Then later posts are duplicates", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fake.count(), convey.ShouldEqual, 3)
				convey.So(out.String(), convey.ShouldContainSubstring, "attempt 3: HTTP 200 state=succeeded duplicate=true")
			})
		})

		convey.Convey("When the server does not deduplicate", func() {
			cfg.Repeat = 2
			cfg.SubmissionID = ""
			err := probe.Run(context.Background(), cfg, &out)

			convey.Convey("Then an id-less repeat is not checked", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fake.count(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the submission is invalid locally", func() {
			cfg.Submission = model.ContactSubmission{Name: "Jo", Email: "a@b.com", Message: "short"}
			err := probe.Run(context.Background(), cfg, &out)

			convey.Convey("Then nothing is posted", func() {
				convey.So(errors.Is(err, contact.ErrValidation), convey.ShouldBeTrue)
				convey.So(fake.count(), convey.ShouldEqual, 0)
				convey.So(out.String(), convey.ShouldContainSubstring, "[warning] Validation Error")
				convey.So(out.String(), convey.ShouldContainSubstring, "message:")
				convey.So(out.String(), convey.ShouldNotContainSubstring, "name:")
			})
		})

		convey.Convey("When the server rejects the submission", func() {
			fake.mu.Lock()
			fake.status = http.StatusBadGateway
			fake.mu.Unlock()
			err := probe.Run(context.Background(), cfg, &out)

			convey.Convey("Then the failure toast and status are printed", func() {
				convey.So(errors.Is(err, contact.ErrTransmission), convey.ShouldBeTrue)
				convey.So(errors.Is(err, probe.ErrRejected), convey.ShouldBeTrue)
				convey.So(out.String(), convey.ShouldContainSubstring, "[error] Submission Failed")
				convey.So(out.String(), convey.ShouldContainSubstring, "server answered HTTP 502 (failed)")
			})
		})
	})

	convey.Convey("Given an unreachable server", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		cfg := &probe.Config{BaseURL: url, Submission: validSubmission(), Timeout: time.Second}
		var out bytes.Buffer
		err := probe.Run(context.Background(), cfg, &out)

		convey.Convey("Then the transmission error is reported", func() {
			convey.So(errors.Is(err, contact.ErrTransmission), convey.ShouldBeTrue)
			convey.So(out.String(), convey.ShouldContainSubstring, "Submission Failed")
			convey.So(out.String(), convey.ShouldNotContainSubstring, "server answered")
		})
	})
}

func TestNewCommand(t *testing.T) {
	convey.Convey("Given the contact-probe command", t, func() {
		fake := newFakeServer()
		srv := httptest.NewServer(fake)
		defer srv.Close()

		convey.Convey("When run with flags", func() {
			cmd := probe.NewCommand()
			var out, errOut bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&errOut)
			cmd.SetArgs([]string{
				"--url", srv.URL,
				"--name", "Artyom",
				"--email", "artyom@example.com",
				"--message", "Hello, I'd like to collaborate.",
				"--repeat", "2",
			})
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then a generated id is reused across posts", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fake.count(), convey.ShouldEqual, 2)
				convey.So(fake.body(0)["submission_id"], convey.ShouldNotBeEmpty)
				convey.So(fake.body(1)["submission_id"], convey.ShouldEqual, fake.body(0)["submission_id"])
				convey.So(out.String(), convey.ShouldContainSubstring, "duplicate=true")
			})
		})

		convey.Convey("When id generation is disabled", func() {
			cmd := probe.NewCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{
				"--url", srv.URL,
				"--name", "Artyom",
				"--email", "artyom@example.com",
				"--message", "Hello, I'd like to collaborate.",
				"--new-id=false",
			})
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then no id is sent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fake.body(0)["submission_id"], convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the flags describe an invalid submission", func() {
			cmd := probe.NewCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"--url", srv.URL, "--name", "A"})
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then the command fails without posting", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(fake.count(), convey.ShouldEqual, 0)
			})
		})
	})
}
