package notification

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatali-fataliyev/banking_portal/internal/timestamp"
	"github.com/google/uuid"
)

// idNamespace scopes ids derived for transactions that carry none of their own.
var idNamespace = uuid.MustParse("6f1c3f0e-5a4b-4d8e-9b51-2c7e1b0a9d42")

type Aggregator struct {
	normalizer *timestamp.Normalizer
	classifier *Classifier
}

func NewAggregator(normalizer *timestamp.Normalizer, classifier *Classifier) *Aggregator {
	return &Aggregator{normalizer: normalizer, classifier: classifier}
}

type normalized struct {
	tx     RawTransaction
	at     time.Time
	parsed bool
}

// Aggregate keeps the MaxNotifications most recent transactions, newest first,
// and marks each as read or unread against read. Equal timestamps keep feed order.
func (a *Aggregator) Aggregate(txs []RawTransaction, viewerAccountNumber string, read ReadSet) Result {
	entries := make([]normalized, 0, len(txs))
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		at, ok := a.normalizer.Parse(tx.RawTimestamp())
		entries = append(entries, normalized{tx: tx, at: at, parsed: ok})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.After(entries[j].at)
	})
	if len(entries) > MaxNotifications {
		entries = entries[:MaxNotifications]
	}

	result := Result{Notifications: make([]Notification, 0, len(entries))}
	derived := make(map[string]int, len(entries))
	for _, e := range entries {
		class := a.classifier.Classify(e.tx, viewerAccountNumber)
		id, own := e.tx.ID()
		if !own {
			id = derivedID(e, derived)
		}
		isRead := read != nil && read.IsRead(id)

		result.Notifications = append(result.Notifications, Notification{
			ID:                   id,
			Title:                class.Title,
			Message:              class.Message,
			Category:             class.Category,
			IsRead:               isRead,
			CreatedAt:            e.at,
			Amount:               e.tx.Amount(),
			RelatedAccountNumber: e.tx.RelatedAccount(),
		})
		if !isRead {
			result.UnreadCount++
		}
	}
	return result
}

// derivedID hashes the whole transaction so every pass yields the same id.
// Identical records are told apart by how many copies precede them in the list.
func derivedID(e normalized, seen map[string]int) string {
	base := uuid.NewSHA1(idNamespace, []byte(fingerprint(e))).String()
	n := seen[base]
	seen[base] = n + 1
	if n == 0 {
		return base
	}
	return uuid.NewSHA1(idNamespace, []byte(base+"#"+strconv.Itoa(n))).String()
}

// fingerprint is the canonical JSON of the record (map keys are sorted on
// encoding) plus the normalized instant when one was parsed.
func fingerprint(e normalized) string {
	when := ""
	if e.parsed {
		when = e.at.UTC().Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(map[string]any(e.tx))
	if err != nil {
		raw = []byte(strings.Join([]string{
			e.tx.SourceAccount(),
			e.tx.TargetAccount(),
			strings.ToLower(e.tx.Type()),
			e.tx.Amount().String(),
			fmt.Sprint(e.tx.RawTimestamp()),
		}, "|"))
	}
	return when + "|" + string(raw)
}
