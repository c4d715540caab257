package all

import (
	"strings"
	"testing"

	"csvtable/internal/storage"
)

func TestAllBackendsRegistered(t *testing.T) {
	got := strings.Join(storage.ListKinds(), ",")
	if got != "mssql,mysql,postgres,sqlite" {
		t.Fatalf("ListKinds = %s", got)
	}
}
