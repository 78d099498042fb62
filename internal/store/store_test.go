package store

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/model"
)

// copyFixture copies testdata/project into a fresh temp dir and returns it.
func copyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(filepath.Join("testdata", "project"))
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("testdata", "project", e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0644))
	}
	return dir
}

func newTestStore(filesystem fs.FS) *Store {
	return NewStore(filesystem, DefaultLayout(), nil)
}

func TestLoad(t *testing.T) {
	dir := copyFixture(t)
	s := newTestStore(fs.NewRealFS())

	p, err := s.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, p.Root)
	assert.Equal(t, "svc", p.Definition.Name)

	roles := p.Definition.Roles()
	require.Len(t, roles, 2)
	assert.Equal(t, "WebRole", roles[0].Name)
	assert.Equal(t, model.RoleKindWeb, roles[0].Kind())
	assert.Equal(t, "WorkerRole", roles[1].Name)
	assert.Equal(t, model.RoleKindWorker, roles[1].Kind())
	assert.True(t, roles[1].HasImport("Caching"))

	task := roles[0].StartupTask("setup_web.cmd > log.txt")
	require.NotNil(t, task)
	require.NotNil(t, task.Variable("EMULATED"))
	assert.Equal(t, "/RoleEnvironment/Deployment/@emulated", task.Variable("EMULATED").RoleInstanceValue.XPath)

	store := roles[1].LocalStore("Microsoft.WindowsAzure.Plugins.Caching.FileStore")
	require.NotNil(t, store)
	assert.Equal(t, 1000, store.SizeInMB)
	assert.False(t, store.CleanOnRoleRecycle)

	require.Len(t, p.Settings, 2)
	assert.Equal(t, DefaultCloudSettingsFile, p.Settings[0].File)
	assert.Equal(t, DefaultLocalSettingsFile, p.Settings[1].File)
	assert.Equal(t, 2, p.Settings[0].Role("WebRole").Instances.Count)
	assert.Equal(t, "hello", p.Settings[1].Role("WebRole").Setting("Greeting").Value)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string)
		wantCode errors.Code
	}{
		{
			name: "missing definition",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.Remove(filepath.Join(dir, DefaultDefinitionFile)))
			},
			wantCode: errors.EDocumentNotFound,
		},
		{
			name: "missing local settings",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.Remove(filepath.Join(dir, DefaultLocalSettingsFile)))
			},
			wantCode: errors.EDocumentNotFound,
		},
		{
			name: "unparsable definition",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, DefaultDefinitionFile, `<ServiceDefinition name="svc"><WebRole`)
			},
			wantCode: errors.EDocumentMalformed,
		},
		{
			name: "wrong root element",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, DefaultCloudSettingsFile, `<ServiceDefinition name="svc"/>`)
			},
			wantCode: errors.EDocumentMalformed,
		},
		{
			name: "duplicate role name",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, DefaultDefinitionFile,
					`<ServiceDefinition name="svc"><WebRole name="WebRole"/><WorkerRole name="WebRole"/></ServiceDefinition>`)
			},
			wantCode: errors.EDocumentMalformed,
		},
		{
			name: "role without settings",
			setup: func(t *testing.T, dir string) {
				writeFile(t, dir, DefaultDefinitionFile,
					`<ServiceDefinition name="svc"><WebRole name="WebRole"><ConfigurationSettings><Setting name="Greeting"/></ConfigurationSettings></WebRole><WorkerRole name="WorkerRole"/><WorkerRole name="Other"/></ServiceDefinition>`)
			},
			wantCode: errors.EDocumentMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := copyFixture(t)
			tt.setup(t, dir)

			_, err := newTestStore(fs.NewRealFS()).Load(dir)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestLoad_MissingProjectDir(t *testing.T) {
	_, err := newTestStore(fs.NewRealFS()).Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, errors.EDocumentNotFound, errors.GetCode(err))
}

func TestSaveRoundTripPreservesUnknownContent(t *testing.T) {
	dir := copyFixture(t)
	s := newTestStore(fs.NewRealFS())

	p, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(p))

	def := readFile(t, dir, DefaultDefinitionFile)
	assert.True(t, strings.HasPrefix(def, `<?xml version="1.0" encoding="UTF-8"?>`))
	for _, want := range []string{
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`,
		`upgradeDomainCount="2"`,
		`enableNativeCodeExecution="true"`,
		`<Binding name="Endpoint1" endpointName="Endpoint1" />`,
		`<OnlyAllowTrafficTo />`,
		`commandLine="setup_web.cmd &gt; log.txt"`,
	} {
		assert.Contains(t, def, want)
	}
	assert.Equal(t, 1, strings.Count(def, "xmlns=\""), "default namespace declared once")

	cloud := readFile(t, dir, DefaultCloudSettingsFile)
	assert.Contains(t, cloud, `osFamily="2"`)
	assert.Contains(t, cloud, `<Certificate name="ssl" thumbprint="ABC" thumbprintAlgorithm="sha1" />`)

	// A second cycle is byte-stable.
	p2, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(p2))
	assert.Equal(t, def, readFile(t, dir, DefaultDefinitionFile))
	assert.Equal(t, cloud, readFile(t, dir, DefaultCloudSettingsFile))

	web := p2.Definition.Roles()[0]
	require.Len(t, web.Extra, 1)
	assert.Equal(t, "Sites", web.Extra[0].XMLName.Local)
}

const extendedDefinition = `<?xml version="1.0" encoding="utf-8"?>
<ServiceDefinition name="svc" xmlns="http://schemas.microsoft.com/ServiceHosting/2008/10/ServiceDefinition" xmlns:x="urn:ext" x:tag="root">
  <WebRole name="WebRole" x:tag="keep">
    <x:Ext><Child a="1" /></x:Ext>
    <Imports x:i="1">
      <Import moduleName="Diagnostics" x:v="2"><x:Note /></Import>
    </Imports>
    <Startup x:s="1">
      <Task commandLine="a.cmd">
        <Environment x:e="3">
          <Variable name="V" x:y="4">
            <RoleInstanceValue xpath="/a" x:r="5" />
            <x:Hint />
          </Variable>
        </Environment>
      </Task>
    </Startup>
    <Endpoints>
      <InputEndpoint name="Endpoint1" protocol="http" port="80" x:lb="on"><x:Probe /></InputEndpoint>
    </Endpoints>
    <LocalResources>
      <LocalStorage name="Scratch" sizeInMB="10" cleanOnRoleRecycle="true" x:disk="ssd" />
    </LocalResources>
    <ConfigurationSettings x:c="5">
      <Setting name="Greeting" x:note="6" />
      <x:Custom />
    </ConfigurationSettings>
  </WebRole>
</ServiceDefinition>
`

const extendedCloudSettings = `<?xml version="1.0" encoding="utf-8"?>
<ServiceConfiguration serviceName="svc" xmlns="http://schemas.microsoft.com/ServiceHosting/2008/10/ServiceConfiguration" xmlns:x="urn:ext">
  <Role name="WebRole">
    <Instances count="1" extra="x"><x:Scale /></Instances>
    <ConfigurationSettings x:c="1">
      <Setting name="Greeting" value="hi" secret="true" />
      <Custom foo="bar" />
    </ConfigurationSettings>
  </Role>
</ServiceConfiguration>
`

const noInstancesLocalSettings = `<?xml version="1.0" encoding="utf-8"?>
<ServiceConfiguration serviceName="svc" xmlns="http://schemas.microsoft.com/ServiceHosting/2008/10/ServiceConfiguration">
  <Role name="WebRole">
    <ConfigurationSettings>
      <Setting name="Greeting" value="" />
    </ConfigurationSettings>
  </Role>
</ServiceConfiguration>
`

func TestSaveRoundTripPreservesForeignContentOnEveryElement(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{
		DefaultDefinitionFile:    extendedDefinition,
		DefaultCloudSettingsFile: extendedCloudSettings,
		DefaultLocalSettingsFile: noInstancesLocalSettings,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0644))
	}
	s := newTestStore(fs.NewRealFS())

	p, err := s.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Settings[1].Role("WebRole").InstanceCount())
	require.NoError(t, s.Save(p))

	def := readFile(t, dir, DefaultDefinitionFile)
	for _, want := range []string{
		`xmlns:x="urn:ext"`,
		`x:tag="root"`,
		`x:tag="keep"`,
		`<x:Ext><Child a="1" /></x:Ext>`,
		`x:i="1"`,
		`x:v="2"`,
		`<x:Note>`,
		`x:s="1"`,
		`x:e="3"`,
		`x:y="4"`,
		`x:r="5"`,
		`<x:Hint>`,
		`x:lb="on"`,
		`<x:Probe>`,
		`x:disk="ssd"`,
		`x:c="5"`,
		`x:note="6"`,
		`<x:Custom>`,
	} {
		assert.Contains(t, def, want)
	}
	assert.NotContains(t, def, `xmlns:_`)
	assert.NotContains(t, def, `xmlns="urn:ext"`)
	assert.Equal(t, 1, strings.Count(def, `xmlns:x=`))
	assert.Equal(t, 1, strings.Count(def, `xmlns="`))

	cloud := readFile(t, dir, DefaultCloudSettingsFile)
	for _, want := range []string{
		`extra="x"`,
		`<x:Scale>`,
		`x:c="1"`,
		`secret="true"`,
		`<Custom foo="bar">`,
	} {
		assert.Contains(t, cloud, want)
	}

	local := readFile(t, dir, DefaultLocalSettingsFile)
	assert.NotContains(t, local, "<Instances")

	// Unprefixed children of a foreign element stay in the document namespace.
	dec := xml.NewDecoder(strings.NewReader(def))
	var child *xml.StartElement
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Child" {
			se := se.Copy()
			child = &se
			break
		}
	}
	require.NotNil(t, child)
	assert.Equal(t, model.DefinitionNamespace, child.Name.Space)

	// A second cycle is byte-stable.
	p2, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(p2))
	assert.Equal(t, def, readFile(t, dir, DefaultDefinitionFile))
	assert.Equal(t, cloud, readFile(t, dir, DefaultCloudSettingsFile))
	assert.Equal(t, local, readFile(t, dir, DefaultLocalSettingsFile))
}

func TestSaveWritesMutations(t *testing.T) {
	dir := copyFixture(t)
	s := newTestStore(fs.NewRealFS())

	p, err := s.Load(dir)
	require.NoError(t, err)

	web := p.Definition.Roles()[0]
	web.AddInternalEndpoint(model.InternalEndpoint{Name: "memcache_default", Protocol: model.ProtocolTCP, Port: "11211"})
	for _, rs := range p.RoleSettings("WebRole") {
		rs.AddSetting("Level", "1")
	}
	web.AddSetting("Level")
	p.Stage(fs.File{Path: filepath.Join(dir, "WebRole", "Web.cloud.config"), Data: []byte("<configuration />"), Perm: 0644})

	require.NoError(t, s.Save(p))
	assert.Empty(t, p.Pending)

	reloaded, err := s.Load(dir)
	require.NoError(t, err)
	ep := reloaded.Definition.Roles()[0].InternalEndpoint("memcache_default")
	require.NotNil(t, ep)
	assert.Equal(t, "11211", ep.Port)
	for _, doc := range reloaded.Settings {
		assert.Equal(t, "1", doc.Role("WebRole").Setting("Level").Value)
	}
	assert.Equal(t, "<configuration />", readFile(t, dir, filepath.Join("WebRole", "Web.cloud.config")))
}

// recordingFS records rename targets and can fail a chosen one.
type recordingFS struct {
	fs.FS
	renamed []string
	failOn  string
}

func (r *recordingFS) Rename(oldpath, newpath string) error {
	if filepath.Base(newpath) == r.failOn {
		return os.ErrPermission
	}
	r.renamed = append(r.renamed, filepath.Base(newpath))
	return r.FS.Rename(oldpath, newpath)
}

func TestSaveOrder(t *testing.T) {
	dir := copyFixture(t)
	rec := &recordingFS{FS: fs.NewRealFS()}
	s := newTestStore(rec)

	p, err := s.Load(dir)
	require.NoError(t, err)
	p.Stage(fs.File{Path: filepath.Join(dir, "WebRole", "setup_cache.cmd"), Data: []byte("@echo off\r\n"), Perm: 0644})

	require.NoError(t, s.Save(p))
	assert.Equal(t, []string{
		"setup_cache.cmd",
		DefaultCloudSettingsFile,
		DefaultLocalSettingsFile,
		DefaultDefinitionFile,
	}, rec.renamed)
}

func TestSaveFailureLeavesDefinitionUntouched(t *testing.T) {
	dir := copyFixture(t)
	before := readFile(t, dir, DefaultDefinitionFile)

	rec := &recordingFS{FS: fs.NewRealFS(), failOn: DefaultLocalSettingsFile}
	s := newTestStore(rec)

	p, err := s.Load(dir)
	require.NoError(t, err)
	p.Definition.Roles()[0].AddImport("Diagnostics")

	err = s.Save(p)
	require.Error(t, err)
	assert.Equal(t, errors.EIOFailure, errors.GetCode(err))

	ce, ok := errors.AsCodedError(err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, DefaultLocalSettingsFile), ce.Details["path"])

	assert.Equal(t, before, readFile(t, dir, DefaultDefinitionFile))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".cloudrole-tmp-"), "temp file left behind: %s", e.Name())
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}
