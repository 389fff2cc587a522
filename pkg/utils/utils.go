package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/holdno/snowFlakeByGo"
)

var (
	// idWorker is the global unique id generator.
	idWorker *snowFlakeByGo.Worker
)

func SetupIDWorker(clusterID int64) {
	idWorker, _ = snowFlakeByGo.NewWorker(clusterID)
}

func init() {
	SetupIDWorker(0)
}

func GenUniqID() int64 {
	return idWorker.GetId()
}

func GenUniqIDStr() string {
	return strconv.FormatInt(GenUniqID(), 10)
}

// ContentHash fingerprints raw content for dedup and change detection.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ConversationID derives a stable id from sorted participant names when the
// export carries no natural identifier.
func ConversationID(participants []string) string {
	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)
	sum := md5.Sum([]byte(strings.Join(sorted, "|")))
	return hex.EncodeToString(sum[:])
}

func Random(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}
