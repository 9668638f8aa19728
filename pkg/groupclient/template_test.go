package groupclient_test

import (
	"testing"

	"github.com/craigwongva/pz-access/pkg/groupclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiDocumentParsing(t *testing.T) {
	docs, err := groupclient.ReadManifestDocuments("testdata/multi_document.yaml", groupclient.TemplateVariables{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.JSONEq(t, `{"deploymentGroupId":"g1","layers":["elevation"]}`, string(docs[0]))
	assert.JSONEq(t, `{"layers":["roads","rivers"]}`, string(docs[1]))
}

func TestTemplating(t *testing.T) {
	ctx := groupclient.TemplateVariables{
		"creator": "alice",
		"layers":  []string{"elevation", "roads"},
	}
	docs, err := groupclient.ReadManifestDocuments("testdata/group.yaml", ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.JSONEq(t, `{"createdBy":"alice","layers":["elevation","roads"]}`, string(docs[0]))
}

func TestBrokenDocument(t *testing.T) {
	_, err := groupclient.ReadManifestDocuments("testdata/broken.yaml", groupclient.TemplateVariables{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "testdata/broken.yaml")
}

func TestMissingFile(t *testing.T) {
	_, err := groupclient.ReadManifestDocuments("testdata/does-not-exist.yaml", groupclient.TemplateVariables{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open file")
}

func TestLoadTemplateVariables(t *testing.T) {
	vars, err := groupclient.LoadTemplateVariables("testdata/vars.yaml", []string{"creator=bob", "debug", "=ignored"})
	require.NoError(t, err)
	assert.Equal(t, "bob", vars["creator"])
	assert.Equal(t, true, vars["debug"])
	assert.Len(t, vars, 3)
	assert.NotContains(t, vars, "")

	vars, err = groupclient.LoadTemplateVariables("", nil)
	require.NoError(t, err)
	assert.Empty(t, vars)

	_, err = groupclient.LoadTemplateVariables("testdata/does-not-exist.yaml", nil)
	assert.Error(t, err)
}
