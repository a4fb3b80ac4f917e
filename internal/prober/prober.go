// Package prober implements the stream liveness probe: one GET request,
// a bounded body sniff, and a best-effort stream-info extraction, all as
// a pure function of (url, client, deadline) per spec.md §4.4. Grounded
// on the teacher's HeaderSettingClient request shape and its
// grafov-first/hand-rolled-fallback manifest parsing structure.
package prober

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"m3uclean/internal/httpclient"
	"m3uclean/internal/types"
)

// sniffDeadline is the per-probe soft deadline for the body-sniff phase
// (spec.md §4.4 step 3), measured from when reading begins.
const sniffDeadline = 8 * time.Second

// retryDelays are the sleeps between the three total attempts spec.md
// §4.4's retry policy allows.
var retryDelays = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}

// Probe attempts url up to three times, honoring ctx cancellation at
// every await point, and returns as soon as an attempt reports alive=true.
func Probe(ctx context.Context, client *httpclient.Client, url string) types.ProbeResult {
	var last types.ProbeResult
	for attempt := 0; attempt < 3; attempt++ {
		if ctx.Err() != nil {
			return types.ProbeResult{Alive: false}
		}
		last = probeOnce(ctx, client, url)
		if last.Alive {
			return last
		}
		if attempt < len(retryDelays) {
			select {
			case <-ctx.Done():
				return types.ProbeResult{Alive: false}
			case <-time.After(retryDelays[attempt]):
			}
		}
	}
	return last
}

func probeOnce(ctx context.Context, client *httpclient.Client, url string) types.ProbeResult {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := client.Probe(reqCtx, url)
	if err != nil {
		return types.ProbeResult{Alive: false}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.StatusCode == http.StatusNoContent {
		return types.ProbeResult{Alive: false}
	}

	// The sniff deadline starts once headers have arrived; cancelling
	// reqCtx aborts a body read that is still in flight.
	sniffTimer := time.AfterFunc(sniffDeadline, cancel)
	defer sniffTimer.Stop()

	buf, err := sniffBody(resp.Body)
	if err != nil || len(buf) == 0 {
		return types.ProbeResult{Alive: false}
	}

	if isErrorPage(buf) {
		return types.ProbeResult{Alive: false}
	}

	alive := hasPositiveSignature(buf) || looksLikeBinary(buf) || acceptableContentType(resp.Header.Get("Content-Type"))
	if !alive {
		return types.ProbeResult{Alive: false}
	}

	return types.ProbeResult{Alive: true, StreamInfo: extractStreamInfo(resp, buf)}
}

// sniffBody reads up to sniffHardMax bytes in at most sniffAttempts
// chunked reads, stopping early once sniffMinFast bytes have arrived or
// the stream ends (spec.md §4.4 step 3).
func sniffBody(r io.Reader) ([]byte, error) {
	buf := make([]byte, sniffHardMax)
	total := 0

	for i := 0; i < sniffAttempts && total < sniffHardMax; i++ {
		n, err := r.Read(buf[total:])
		total += n
		if total >= sniffMinFast || total >= sniffHardMax {
			break
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			if total == 0 {
				return nil, err
			}
			break
		}
	}
	return buf[:total], nil
}

// extractStreamInfo derives best-effort stream metadata from the icy-br
// response header and the sniffed body, merging header-derived values
// over body-derived ones when both are present (spec.md §4.4).
func extractStreamInfo(resp *http.Response, buf []byte) *types.StreamInfo {
	var headerInfo *types.StreamInfo
	if br := resp.Header.Get("icy-br"); br != "" {
		if kbps, err := strconv.Atoi(br); err == nil {
			headerInfo = &types.StreamInfo{Bitrate: kbps * 1000}
		}
	}

	bodyInfo := manifestStreamInfo(buf)
	if bodyInfo == nil {
		videoCodec, audioCodec := magicByteCodec(buf)
		if videoCodec != "" || audioCodec != "" {
			bodyInfo = &types.StreamInfo{VideoCodec: videoCodec, AudioCodec: audioCodec}
		}
	}

	if headerInfo == nil {
		return bodyInfo
	}
	return headerInfo.Merge(bodyInfo)
}
