package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// migration porta il record grezzo dalla versione N alla N+1.
type migration func(map[string]any) error

// migrations e' indicizzata per versione di partenza.
var migrations = map[int]migration{
	0: migrateLegacy,
	1: addCookies,
}

// Encode serializza il record con la versione corrente.
func Encode(r Record, now time.Time) ([]byte, error) {
	r.Version = CurrentVersion
	r.SavedAt = now.UTC()
	return json.Marshal(r)
}

// Decode legge un record di qualsiasi versione nota, applicando le migrazioni.
// Una versione futura ritorna Empty() con ErrIncompatibleRecord.
func Decode(raw []byte) (Record, error) {
	if !gjson.ValidBytes(raw) {
		return Empty(), fmt.Errorf("%w: invalid json", ErrIncompatibleRecord)
	}
	version := int(gjson.GetBytes(raw, "version").Int())
	if version > CurrentVersion || version < 0 {
		return Empty(), fmt.Errorf("%w: version %d", ErrIncompatibleRecord, version)
	}
	if version == CurrentVersion {
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return Empty(), fmt.Errorf("%w: %v", ErrIncompatibleRecord, err)
		}
		return r, nil
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Empty(), fmt.Errorf("%w: %v", ErrIncompatibleRecord, err)
	}
	for v := version; v < CurrentVersion; v++ {
		if err := migrations[v](doc); err != nil {
			return Empty(), fmt.Errorf("%w: migrate v%d: %v", ErrIncompatibleRecord, v, err)
		}
		doc["version"] = v + 1
	}

	migrated, err := json.Marshal(doc)
	if err != nil {
		return Empty(), err
	}
	var r Record
	if err := json.Unmarshal(migrated, &r); err != nil {
		return Empty(), fmt.Errorf("%w: %v", ErrIncompatibleRecord, err)
	}
	return r, nil
}

// migrateLegacy converte il formato senza versione ({user, isAuthenticated}
// con eventuale token). Il token non e' piu' usato: la sessione va riverificata.
func migrateLegacy(doc map[string]any) error {
	if auth, ok := doc["isAuthenticated"]; ok {
		flag, isBool := auth.(bool)
		if !isBool {
			return fmt.Errorf("isAuthenticated is %T", auth)
		}
		doc["is_authenticated"] = flag
		delete(doc, "isAuthenticated")
	}
	delete(doc, "token")
	doc["has_checked_auth"] = false
	return nil
}

func addCookies(doc map[string]any) error {
	if _, ok := doc["cookies"]; !ok {
		doc["cookies"] = []any{}
	}
	return nil
}
