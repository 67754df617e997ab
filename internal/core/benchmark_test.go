package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
)

func BenchmarkCleanCell(b *testing.B) {
	inputs := []string{"email", "  Name  ", `="Surname"`, `"email"`}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, s := range inputs {
			CleanCell(s)
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Normalize(" john ", " DOE ", " John.Doe@Example.COM ")
	}
}

func BenchmarkValidateEmail(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ValidateEmail("john.doe@example.com")
	}
}

func BenchmarkLoader_DryRun(b *testing.B) {
	data := generateTestCSV(10000)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		l := NewLoader(nil, io.Discard, Options{Mode: ModeDryRun})
		if _, err := l.Run(context.Background(), bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	buf.WriteString("name,surname,email\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&buf, "user%d,SURNAME%d,User%d@Example.com\n", i, i, i)
	}
	return buf.Bytes()
}
