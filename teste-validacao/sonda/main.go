// sonda dispara uma rajada de GETs contra uma rota protegida e conta quantas
// respostas vieram do handler real e quantas vieram atrasadas pelo gate.
package main

import (
	"flag"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"analytics-gateway/logging"
)

func main() {
	url := flag.String("url", "http://localhost:8080/", "rota protegida")
	n := flag.Int("n", 5, "número de requisições")
	parallel := flag.Bool("parallel", false, "dispara todas ao mesmo tempo")
	flag.Parse()

	log := logging.New(logging.Config{Format: "console", Output: os.Stdout})
	client := &http.Client{Timeout: 30 * time.Second}

	var (
		mu        sync.Mutex
		proceeded int
		delayed   int
		failed    int
	)
	hit := func(i int) {
		start := time.Now()
		resp, err := client.Get(*url)
		if err != nil {
			log.Error().Err(err).Int("req", i).Msg("request failed")
			mu.Lock()
			failed++
			mu.Unlock()
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		status := resp.Header.Get("X-RateLimit-Status")
		log.Info().
			Int("req", i).
			Int("code", resp.StatusCode).
			Str("gate", status).
			Str("count", resp.Header.Get("X-RateLimit-Count")).
			Dur("took", time.Since(start)).
			Msg("response")

		mu.Lock()
		defer mu.Unlock()
		if status == "delayed" {
			delayed++
		} else {
			proceeded++
		}
	}

	var wg sync.WaitGroup
	for i := 1; i <= *n; i++ {
		if !*parallel {
			hit(i)
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hit(i)
		}(i)
	}
	wg.Wait()

	log.Info().Int("proceeded", proceeded).Int("delayed", delayed).Int("failed", failed).Msg("done")
}
