package utils

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestReportKey(t *testing.T) {
	at := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "verificacao-de-integridade-do-fundo/2026/10/19/150405.json",
		ReportKey("Verificação de Integridade do Fundo", at))
}

func TestR2ArchivePut(t *testing.T) {
	putter := &fakePutter{}
	archive := &R2Archive{client: putter, bucket: "reports"}
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	key, err := archive.Put(context.Background(), "Fundo", at, map[string]int{"active_fund_count": 1})
	require.NoError(t, err)

	assert.Equal(t, "fundo/2026/10/19/080000.json", key)
	assert.Equal(t, "reports", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(putter.body, &decoded))
	assert.Equal(t, 1, decoded["active_fund_count"])
}
