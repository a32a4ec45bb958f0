package output

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hyp3rd/ewrap"
)

// MultiSink fans formatted log output out to several sinks.
type MultiSink struct {
	mu sync.RWMutex

	Sinks []Sink
	// Descriptive name for each sink to help with diagnostics
	sinkNames map[Sink]string
}

// NewMultiSink creates a sink that writes to all provided sinks.
// It filters out nil sinks and returns an error if no valid sink remains.
func NewMultiSink(sinks ...Sink) (*MultiSink, error) {
	if len(sinks) == 0 {
		return nil, ErrNoSinks
	}

	validSinks := make([]Sink, 0, len(sinks))
	sinkNames := make(map[Sink]string)

	for i, s := range sinks {
		if s != nil {
			validSinks = append(validSinks, s)
			sinkNames[s] = fmt.Sprintf("%T[%d]", s, i)
		}
	}

	if len(validSinks) == 0 {
		return nil, ErrNoSinks
	}

	return &MultiSink{
		Sinks:     validSinks,
		sinkNames: sinkNames,
	}, nil
}

// Write sends the payload to all sinks with detailed diagnostics.
func (ms *MultiSink) Write(payload []byte) (int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if len(ms.Sinks) == 0 {
		return 0, nil
	}

	failedWrites, incompleteWrites, successCount := ms.writeToEachSink(payload)

	return ms.prepareResult(payload, failedWrites, incompleteWrites, successCount)
}

// Sync ensures all sinks are synced. It iterates through the sinks, calling
// Sync() on each one, and returns an error if any of the syncs fail,
// including a detailed report with the failure details.
func (ms *MultiSink) Sync() error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var syncErrors []string

	for _, sink := range ms.Sinks {
		if sink == nil || shouldBypassSync(sink) {
			continue
		}

		err := sink.Sync()
		if err != nil {
			syncErrors = append(syncErrors, fmt.Sprintf("%T: %v", sink, err))
		}
	}

	if len(syncErrors) > 0 {
		return ewrap.New("sync operation partially failed").
			WithMetadata("failed_syncs", syncErrors).
			WithMetadata("total_sinks", len(ms.Sinks))
	}

	return nil
}

// Close closes all sinks with detailed cleanup tracking. It returns an error
// if any of the closes fail, including a detailed report with the failure
// details.
func (ms *MultiSink) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var closeErrors []string

	for _, sink := range ms.Sinks {
		if sink == nil || shouldBypassClose(sink) {
			continue
		}

		err := sink.Close()
		if err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("%T: %v", sink, err))
		}
	}

	// Clear the sink slice
	for i := range ms.Sinks {
		ms.Sinks[i] = nil
	}

	ms.Sinks = nil

	if len(closeErrors) > 0 {
		return ewrap.New("close operation partially failed").
			WithMetadata("failed_closes", closeErrors).
			WithMetadata("total_sinks", len(closeErrors))
	}

	return nil
}

// AddSink adds a new sink to the MultiSink. If the provided sink is nil,
// an error is returned.
func (ms *MultiSink) AddSink(sink Sink) error {
	if sink == nil {
		return ewrap.New("cannot add nil sink")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	// Check for duplicates
	for _, existing := range ms.Sinks {
		if existing == sink {
			return ewrap.New("sink already exists in MultiSink")
		}
	}

	ms.Sinks = append(ms.Sinks, sink)
	ms.sinkNames[sink] = fmt.Sprintf("%T[%d]", sink, len(ms.Sinks)-1)

	return nil
}

// RemoveSink removes a sink from the MultiSink.
func (ms *MultiSink) RemoveSink(sink Sink) {
	if sink == nil {
		return
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i, existing := range ms.Sinks {
		if existing == sink {
			// Remove the sink by replacing it with the last element
			// and truncating the slice
			lastIdx := len(ms.Sinks) - 1
			ms.Sinks[i] = ms.Sinks[lastIdx]
			ms.Sinks[lastIdx] = nil
			ms.Sinks = ms.Sinks[:lastIdx]

			break
		}
	}
}

// writeToEachSink attempts to write the payload to each sink and tracks results.
//
//nolint:nonamedreturns
func (ms *MultiSink) writeToEachSink(
	payload []byte,
) (failedWrites []string, incompleteWrites []string, successCount int) {
	totalBytes := len(payload)

	for _, sink := range ms.Sinks {
		if sink == nil {
			continue
		}

		sinkName := ms.getSinkName(sink)
		bytesWritten, err := sink.Write(payload)

		switch {
		case err != nil:
			failedWrites = append(failedWrites, fmt.Sprintf("%s: %v", sinkName, err))
		case bytesWritten != totalBytes:
			incompleteWrites = append(
				incompleteWrites,
				fmt.Sprintf("%s: wrote %d/%d bytes", sinkName, bytesWritten, totalBytes),
			)
		default:
			successCount++
		}
	}

	return failedWrites, incompleteWrites, successCount
}

// getSinkName returns a descriptive name for a sink.
func (ms *MultiSink) getSinkName(sink Sink) string {
	sinkName, ok := ms.sinkNames[sink]
	if !ok {
		sinkName = fmt.Sprintf("%T", sink)
	}

	return sinkName
}

// prepareResult determines the appropriate return values based on write results.
func (ms *MultiSink) prepareResult(
	payload []byte,
	failedWrites []string,
	incompleteWrites []string,
	successCount int,
) (int, error) {
	totalBytes := len(payload)

	// Return success if all sinks succeeded
	if len(failedWrites) == 0 && len(incompleteWrites) == 0 {
		return totalBytes, nil
	}

	errMsg := ms.buildErrorMessage(failedWrites, incompleteWrites, successCount)

	// Return behavior depends on whether any writes succeeded
	if successCount > 0 {
		return totalBytes, ewrap.New(errMsg)
	}

	return 0, ewrap.New(errMsg)
}

// buildErrorMessage creates an error message from the results of write operations.
func (ms *MultiSink) buildErrorMessage(failedWrites, incompleteWrites []string, successCount int) string {
	var errMsg strings.Builder

	errMsg.WriteString(fmt.Sprintf("write operation partially failed (%d/%d sinks succeeded)",
		successCount, len(ms.Sinks)))

	if len(failedWrites) > 0 {
		errMsg.WriteString("\nFailed writes:\n  ")
		errMsg.WriteString(strings.Join(failedWrites, "\n  "))
	}

	if len(incompleteWrites) > 0 {
		errMsg.WriteString("\nIncomplete writes:\n  ")
		errMsg.WriteString(strings.Join(incompleteWrites, "\n  "))
	}

	return errMsg.String()
}
