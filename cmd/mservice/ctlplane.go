package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"runtime/pprof"
	"strings"

	"github.com/Comcast/casematch/tools"
)

// Handler returns the control plane's HTTP handler.
//
//	/api                POST an SOp and get it back with results
//	/tables/NS/ID       HTML documentation for a Table
//	/goroutines         goroutine dump
func (s *Service) Handler(ctx context.Context) *http.ServeMux {
	mux := http.NewServeMux()

	complain := func(w http.ResponseWriter, x interface{}, status int) {
		js, _ := json.Marshal(map[string]string{
			"error": fmt.Sprint(x),
		})
		w.WriteHeader(status)
		fmt.Fprintf(w, "%s\n", js)
	}

	mux.Handle("/goroutines", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pprof.Lookup("goroutine").WriteTo(w, 1)
	}))

	mux.Handle("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		js, err := ioutil.ReadAll(r.Body)
		if err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}
		if err := r.Body.Close(); err != nil {
			log.Printf("Service.Handler warning on Body.Close(): %v", err)
		}

		var op SOp
		if err := json.Unmarshal(js, &op); err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}
		if err = op.Do(ctx, s); err != nil {
			complain(w, err, http.StatusInternalServerError)
			return
		}
		js, err = json.Marshal(&op)
		if err != nil {
			complain(w, err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err = w.Write(js); err != nil {
			log.Printf("Service.Handler warning on Write(): %v", err)
		}
	}))

	mux.Handle("/tables/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/tables/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			complain(w, "want /tables/NS/ID", http.StatusBadRequest)
			return
		}
		t, err := s.compiledTable(ctx, parts[0], parts[1])
		if err != nil {
			complain(w, err, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err = tools.RenderTablePage(t, w, nil); err != nil {
			log.Printf("Service.Handler warning on render: %v", err)
		}
	}))

	return mux
}

// HTTPServer serves the control plane, which can include websockets
// if WebSockets has been called.
func (s *Service) HTTPServer(ctx context.Context, port string, mux *http.ServeMux) error {
	log.Printf("Service.HTTPServer starting on %s", port)

	srv := &http.Server{
		Addr:    port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
