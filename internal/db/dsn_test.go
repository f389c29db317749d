package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/sales", "postgres://u:p@localhost:5432/sales"},
		{" \"postgres://u@localhost/sales\" ", "postgres://u@localhost/sales"},
		{"host=localhost user=u dbname=sales", "host=localhost user=u dbname=sales sslmode=disable"},
		{"host=localhost  user=u   dbname=sales sslmode=require", "host=localhost user=u dbname=sales sslmode=require"},
		{"file:sales.db?cache=shared", "file:sales.db?cache=shared"},
		{"", ""},
		{"not a dsn", "not a dsn"},
	}
	for _, c := range cases {
		if got := NormalizeDSN(c.in); got != c.want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsSQLiteDSN(t *testing.T) {
	for _, dsn := range []string{"file:test?mode=memory", ":memory:", "sales.db", "data.sqlite"} {
		if !IsSQLiteDSN(dsn) {
			t.Errorf("expected sqlite DSN: %q", dsn)
		}
	}
	for _, dsn := range []string{"postgres://u@h/db", "host=localhost dbname=sales"} {
		if IsSQLiteDSN(dsn) {
			t.Errorf("not a sqlite DSN: %q", dsn)
		}
	}
}
