// Package bolttx implements the transaction state machine of spec §4.7:
// Ready -> Active -> Committing/RollingBack -> Succeeded|Failed|Aborted,
// plus the terminal MarkedToClose reachable from Ready or Active.
//
// The teacher's tx.go never modeled this: boltTx sent literal "COMMIT"/
// "ROLLBACK" Cypher through RUN and had no Ready/Active distinction at
// all. This is grounded instead in the official driver's bolt5.go
// TxBegin/TxCommit/TxRollback shape (internalTx5, success/failure
// latching), re-expressed against this repo's own engine package.
package bolttx

import (
	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/engine"
	"github.com/mindstand/golang-bolt-driver/structures/messages"
)

// State is one of the transaction lifecycle states from spec §4.7.
type State int

const (
	StateReady State = iota
	StateActive
	StateCommitting
	StateRollingBack
	StateSucceeded
	StateFailed
	StateAborted
	StateMarkedToClose
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateActive:
		return "Active"
	case StateCommitting:
		return "Committing"
	case StateRollingBack:
		return "RollingBack"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateAborted:
		return "Aborted"
	case StateMarkedToClose:
		return "MarkedToClose"
	default:
		return "Unknown"
	}
}

// ResourceHandler is the one-shot callback a transaction invokes on
// termination, carrying the final bookmark (empty if none was issued).
// It returns the connection to the pool; called exactly once per
// transaction life (spec §4.7 Rules, testable property 8).
type ResourceHandler func(bookmark string)

// Config carries a transaction's BEGIN-time metadata: bookmarks to wait
// on, an access mode, a database name, and a custom metadata bag whose
// entries are merged into the BEGIN metadata as-is, following the
// official driver's internalTx5.toMeta().
type Config struct {
	Bookmarks    []string
	Mode         string
	DatabaseName string
	Metadata     map[string]interface{}
}

// Transaction is the user-visible explicit-transaction state machine. Not
// safe for concurrent use: a session holds at most one live transaction,
// mutated only by its owning session thread (spec §3).
type Transaction struct {
	eng          *engine.Engine
	state        State
	successFlag  bool
	failureFlag  bool
	bookmark     string
	onDispose    ResourceHandler
}

// New creates a Transaction in the Ready state over eng, with onDispose
// as its resource handler.
func New(eng *engine.Engine, onDispose ResourceHandler) *Transaction {
	return &Transaction{eng: eng, state: StateReady, onDispose: onDispose}
}

// State reports the transaction's current state.
func (t *Transaction) State() State {
	return t.state
}

// Bookmark reports the bookmark stored on a successful commit, or empty.
func (t *Transaction) Bookmark() string {
	return t.bookmark
}

func (t *Transaction) toMeta(cfg Config) map[string]interface{} {
	meta := map[string]interface{}{}
	if len(cfg.Bookmarks) > 0 {
		meta["bookmarks"] = cfg.Bookmarks
	}
	if cfg.Mode == "r" {
		meta["mode"] = "r"
	}
	if cfg.DatabaseName != "" {
		meta["db"] = cfg.DatabaseName
	}
	for k, v := range cfg.Metadata {
		meta[k] = v
	}
	return meta
}

// Begin sends BEGIN with the given bookmarks/tx config, transitioning
// Ready -> Active.
func (t *Transaction) Begin(cfg Config) error {
	if t.state != StateReady {
		return errors.NewClient("cannot begin transaction: not in Ready state (currently %s)", t.state)
	}
	handler := &engine.ResponseHandler{
		OnSuccess: func(map[string]interface{}) error { return nil },
		OnFailure: func(meta map[string]interface{}) error {
			return errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message"))
		},
	}
	if err := t.eng.Enqueue(messages.NewBeginMessage(t.toMeta(cfg)), handler); err != nil {
		return err
	}
	if err := t.eng.Flush(); err != nil {
		return err
	}
	t.state = StateActive
	return nil
}

// MarkToClose transitions Ready/Active -> MarkedToClose with no wire
// traffic. Any other state is left unchanged.
func (t *Transaction) MarkToClose() {
	if t.state == StateReady || t.state == StateActive {
		t.state = StateMarkedToClose
	}
}

// Success latches a pending commit-on-dispose. A later Failure call wins
// over it (spec §4.7 Rules, testable property 6).
func (t *Transaction) Success() {
	if t.state == StateActive {
		t.successFlag = true
	}
}

// Failure latches a pending rollback-on-dispose, overriding any earlier
// Success call.
func (t *Transaction) Failure() {
	if t.state == StateActive {
		t.failureFlag = true
		t.successFlag = false
	}
}

// Run enqueues RUN and a PULL_ALL stream fetch against the transaction,
// returning a Stream that lazily yields records. A failed RUN marks the
// transaction MarkedToClose (spec §4.7 Rules).
func (t *Transaction) Run(statement string, params map[string]interface{}) (*Stream, error) {
	if t.state == StateMarkedToClose {
		return nil, errors.NewClient("Cannot run more statements in this transaction, because a previous statement in the transaction failed and the transaction has been rolled back or marked to close")
	}
	if t.state != StateActive {
		return nil, errors.NewClient("cannot run statement: transaction is not Active (currently %s)", t.state)
	}

	stream := newStream()
	runFailed := false

	runHandler := &engine.ResponseHandler{
		OnSuccess: func(meta map[string]interface{}) error { stream.setRunMetadata(meta); return nil },
		OnFailure: func(meta map[string]interface{}) error {
			runFailed = true
			stream.fail(errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message")))
			return nil
		},
	}
	if err := t.eng.Enqueue(messages.NewRunMessage(statement, params), runHandler); err != nil {
		return nil, err
	}

	pullHandler := &engine.ResponseHandler{
		OnRecord: func(fields []interface{}) error { stream.pushRecord(fields); return nil },
		OnSuccess: func(meta map[string]interface{}) error {
			stream.complete(meta)
			return nil
		},
		OnFailure: func(meta map[string]interface{}) error {
			runFailed = true
			stream.fail(errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message")))
			return nil
		},
	}
	if err := t.eng.Enqueue(messages.NewPullAllMessage(), pullHandler); err != nil {
		return nil, err
	}

	if err := t.eng.Flush(); err != nil {
		return nil, err
	}
	if runFailed {
		t.state = StateMarkedToClose
	}
	return stream, nil
}

// BeginAndRun pipelines BEGIN, RUN, and PULL_ALL as a single round trip
// instead of waiting for BEGIN's reply before sending RUN, the shape
// spec §4.8 describes for an autocommit statement. If BEGIN fails, the
// server ignores RUN/PULL_ALL until RESET; that cascade already threads
// through engine.Engine's existing OnIgnored dispatch, so no extra
// state tracking is needed here beyond remembering BEGIN's error.
func (t *Transaction) BeginAndRun(cfg Config, statement string, params map[string]interface{}) (*Stream, error) {
	if t.state != StateReady {
		return nil, errors.NewClient("cannot begin transaction: not in Ready state (currently %s)", t.state)
	}

	var beginErr error
	beginHandler := &engine.ResponseHandler{
		OnSuccess: func(map[string]interface{}) error { t.state = StateActive; return nil },
		OnFailure: func(meta map[string]interface{}) error {
			beginErr = errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message"))
			t.state = StateMarkedToClose
			return nil
		},
	}
	if err := t.eng.Enqueue(messages.NewBeginMessage(t.toMeta(cfg)), beginHandler); err != nil {
		return nil, err
	}

	stream := newStream()
	runFailed := false

	runHandler := &engine.ResponseHandler{
		OnSuccess: func(meta map[string]interface{}) error { stream.setRunMetadata(meta); return nil },
		OnFailure: func(meta map[string]interface{}) error {
			runFailed = true
			stream.fail(errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message")))
			return nil
		},
		OnIgnored: func() error {
			runFailed = true
			stream.fail(beginErr)
			return nil
		},
	}
	if err := t.eng.Enqueue(messages.NewRunMessage(statement, params), runHandler); err != nil {
		return nil, err
	}

	pullHandler := &engine.ResponseHandler{
		OnRecord: func(fields []interface{}) error { stream.pushRecord(fields); return nil },
		OnSuccess: func(meta map[string]interface{}) error {
			stream.complete(meta)
			return nil
		},
		OnFailure: func(meta map[string]interface{}) error {
			runFailed = true
			stream.fail(errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message")))
			return nil
		},
		OnIgnored: func() error {
			runFailed = true
			return nil
		},
	}
	if err := t.eng.Enqueue(messages.NewPullAllMessage(), pullHandler); err != nil {
		return nil, err
	}

	if err := t.eng.Flush(); err != nil {
		return nil, err
	}
	if beginErr != nil {
		return nil, beginErr
	}
	if runFailed {
		t.state = StateMarkedToClose
	}
	return stream, nil
}

// Commit transitions Active -> Committing and sends COMMIT.
func (t *Transaction) Commit() error {
	if t.state == StateMarkedToClose {
		return errors.NewClient("Cannot run more statements in this transaction, because it has been marked to close")
	}
	if t.state != StateActive {
		return errors.NewClient("cannot commit: transaction is not Active (currently %s)", t.state)
	}
	t.state = StateCommitting
	return t.sendCommit()
}

// Rollback transitions Active -> RollingBack and sends ROLLBACK.
func (t *Transaction) Rollback() error {
	if t.state == StateMarkedToClose {
		return errors.NewClient("Cannot run more statements in this transaction, because it has been marked to close")
	}
	if t.state != StateActive {
		return errors.NewClient("cannot rollback: transaction is not Active (currently %s)", t.state)
	}
	t.state = StateRollingBack
	return t.sendRollback()
}

// Dispose ends the transaction following spec §4.7's dispose rules:
// without a success flag it rolls back; with success and no failure it
// commits; on MarkedToClose it notifies the resource handler with no
// wire traffic; on any terminal state it is a no-op. Idempotent overall -
// the resource handler fires exactly once (testable property 8).
func (t *Transaction) Dispose() error {
	switch t.state {
	case StateSucceeded, StateFailed, StateAborted:
		return nil
	case StateMarkedToClose:
		t.notifyDispose()
		return nil
	case StateReady:
		t.state = StateAborted
		t.notifyDispose()
		return nil
	case StateActive:
		if t.successFlag && !t.failureFlag {
			t.state = StateCommitting
			return t.sendCommit()
		}
		t.state = StateRollingBack
		return t.sendRollback()
	default:
		return nil
	}
}

func (t *Transaction) sendCommit() error {
	var dbErr error
	handler := &engine.ResponseHandler{
		OnSuccess: func(meta map[string]interface{}) error {
			t.bookmark = stringField(meta, "bookmark")
			t.state = StateSucceeded
			t.notifyDispose()
			return nil
		},
		OnFailure: func(meta map[string]interface{}) error {
			dbErr = errors.NewDatabase(stringField(meta, "code"), stringField(meta, "message"))
			t.state = StateFailed
			t.notifyDispose()
			return nil
		},
	}
	if err := t.eng.Enqueue(messages.NewCommitMessage(), handler); err != nil {
		return err
	}
	if err := t.eng.Flush(); err != nil {
		return err
	}
	return dbErr
}

func (t *Transaction) sendRollback() error {
	handler := &engine.ResponseHandler{
		OnSuccess: func(map[string]interface{}) error {
			t.state = StateAborted
			t.notifyDispose()
			return nil
		},
		OnFailure: func(map[string]interface{}) error {
			t.state = StateAborted
			t.notifyDispose()
			return nil
		},
	}
	if err := t.eng.Enqueue(messages.NewRollbackMessage(), handler); err != nil {
		return err
	}
	return t.eng.Flush()
}

// notifyDispose invokes the resource handler exactly once; subsequent
// calls are no-ops because onDispose is cleared after firing.
func (t *Transaction) notifyDispose() {
	if t.onDispose == nil {
		return
	}
	handler := t.onDispose
	t.onDispose = nil
	handler(t.bookmark)
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
