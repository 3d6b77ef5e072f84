package mailer

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"testing"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/routine"
)

func sampleReport() routine.WeeklyReport {
	wake, end := "06:05", "06:48"
	dur, delta, start, last := 47, -0.7, 79.1, 78.4
	skipped := "lauds"
	return routine.WeeklyReport{
		WeekStart:      time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		WeekEnd:        time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC),
		DaysCompleted:  5,
		DaysTotal:      7,
		CompletionRate: 71,
		AvgWakeUpTime:  &wake,
		AvgDuration:    &dur,
		WeightStart:    &start,
		WeightEnd:      &last,
		WeightDelta:    &delta,
		MostSkipped:    &skipped,
		DailyDetails: []routine.DayDetail{
			{Date: "2026-10-05", Completed: true, CompletedActivities: 13, TotalActivities: 13, RoutineEndTime: &end},
			{Date: "2026-10-06", CompletedActivities: 9, TotalActivities: 13},
		},
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	body, err := Render(sampleReport(), activities.Default(), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"5 ott - 11 ott 2026",
		"71%",
		"5/7",
		"06:05",
		"47m",
		"79.1 kg",
		`class="delta-down">-0.7 kg`,
		"lun 5",
		"Completato",
		"06:48",
		"mar 6",
		"9/13",
		"<strong>Lodi</strong>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("rendered report misses %q", want)
		}
	}
}

func TestRenderEmptyWeek(t *testing.T) {
	t.Parallel()
	r := routine.WeeklyReport{
		WeekStart: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		WeekEnd:   time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC),
		DaysTotal: 7,
	}
	body, err := Render(r, activities.Default(), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, `class="delta-stable">=`) || strings.Contains(body, "class=\"alert\"") {
		t.Fatalf("unexpected empty render")
	}
}

func TestSubject(t *testing.T) {
	t.Parallel()
	if got := Subject(sampleReport(), time.UTC); got != "Report Settimanale MR - 5 ott" {
		t.Fatalf("subject = %q", got)
	}
}

func TestSendWeeklyReport(t *testing.T) {
	t.Parallel()
	m := New(Config{Host: "smtp.example.com", Port: 587, User: "u", Pass: "p", From: "MR <mr@example.com>"}, activities.Default(), time.UTC)

	var (
		gotAddr, gotFrom string
		gotTo            []string
		gotMsg           string
	)
	m.send = func(_ context.Context, addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	if err := m.SendWeeklyReport(context.Background(), sampleReport(), "me@example.com"); err != nil {
		t.Fatal(err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "mr@example.com" || len(gotTo) != 1 || gotTo[0] != "me@example.com" {
		t.Fatalf("unexpected envelope %s %s %v", gotAddr, gotFrom, gotTo)
	}
	for _, want := range []string{"Subject: Report Settimanale MR - 5 ott\r\n", "To: me@example.com\r\n", "Content-Type: text/html"} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message misses %q", want)
		}
	}

	m.send = func(context.Context, string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	if err := m.SendWeeklyReport(context.Background(), sampleReport(), "me@example.com"); err == nil {
		t.Fatalf("expected the send error")
	}
	if err := m.SendWeeklyReport(context.Background(), sampleReport(), ""); err == nil {
		t.Fatalf("expected an error without a recipient")
	}
}

// silentServer accepts connections and never sends the SMTP greeting.
func silentServer(t *testing.T) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		var conns []net.Conn
		for {
			conn, err := ln.Accept()
			if err != nil {
				for _, c := range conns {
					_ = c.Close()
				}
				return
			}
			conns = append(conns, conn)
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		<-done
	})
	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestDialStopsWithTheContext(t *testing.T) {
	t.Parallel()
	host, port := silentServer(t)
	m := New(Config{Host: host, Port: port}, activities.Default(), time.UTC)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	deadline, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	started := time.Now()
	if err := m.dial(deadline, addr, nil, "mr@example.com", []string{"me@example.com"}, []byte("hi")); err == nil {
		t.Fatalf("a silent server must not accept the message")
	}
	if took := time.Since(started); took > 5*time.Second {
		t.Fatalf("dial ignored the deadline, took %v", took)
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancelNow)
	started = time.Now()
	if err := m.dial(cancelled, addr, nil, "mr@example.com", []string{"me@example.com"}, []byte("hi")); err == nil {
		t.Fatalf("a silent server must not accept the message")
	}
	if took := time.Since(started); took > 5*time.Second {
		t.Fatalf("dial ignored the cancellation, took %v", took)
	}
}
