package feature

import (
	"github.com/NielsdaWheelz/cloudrole/internal/model"
	"github.com/NielsdaWheelz/cloudrole/internal/scaffold"
)

// Caching plugin names shared with cache worker roles.
const (
	CachingModule         = "Caching"
	ClientDiagnosticLevel = "Microsoft.WindowsAzure.Plugins.Caching.ClientDiagnosticLevel"
	MemcacheEndpointName  = "memcache_default"
	MemcacheEndpointPort  = "11211"
	DiagnosticStoreName   = "DiagnosticStore"
	CacheStartupCommand   = "setup_cache.cmd > cache_log.txt"
	CacheRuntimeID        = "cache"
	WebCloudConfig        = "Web.cloud.config"
)

const (
	dataCacheClientsSection = "dataCacheClients"
	dataCacheClientsType    = "Microsoft.ApplicationServer.Caching.DataCacheClientsSection, Microsoft.ApplicationServer.Caching.Core"
	emulatedXPath           = "/RoleEnvironment/Deployment/@emulated"
	diagnosticStoreSizeInMB = 20000
	clientDiagnosticLevelOn = "1"
)

const dataCacheClientsFragment = `<dataCacheClients>
  <dataCacheClient name="DefaultShimConfig" useLegacyProtocol="false">
    <autoDiscover isEnabled="true" identifier="{{xml .Provider}}" />
  </dataCacheClient>
</dataCacheClients>`

func memcache() Descriptor {
	return Descriptor{
		ID:             Memcache,
		ProviderKind:   model.RoleKindWorker,
		ConsumerKind:   model.RoleKindWeb,
		ProviderImport: CachingModule,
		ConsumerMarker: ClientDiagnosticLevel,
		Directives: []Directive{
			AddInternalEndpoint{Endpoint: model.InternalEndpoint{
				Name:     MemcacheEndpointName,
				Protocol: model.ProtocolTCP,
				Port:     MemcacheEndpointPort,
			}},
			AddLocalStore{Store: model.LocalStore{
				Name:               DiagnosticStoreName,
				SizeInMB:           diagnosticStoreSizeInMB,
				CleanOnRoleRecycle: false,
			}},
			AddDefinitionSetting{Name: ClientDiagnosticLevel},
			AddSettingValue{Name: ClientDiagnosticLevel, Value: clientDiagnosticLevelOn},
			AddStartupTask{Task: model.Task{
				CommandLine:      CacheStartupCommand,
				ExecutionContext: "elevated",
				TaskType:         "simple",
				Environment: &model.Environment{Variables: []model.Variable{
					{Name: "EMULATED", RoleInstanceValue: &model.RoleInstanceValue{XPath: emulatedXPath}},
					{Name: "RUNTIMEID", Value: CacheRuntimeID},
				}},
			}},
			CopyScaffold{Template: scaffold.TemplateCacheWebRole},
			InjectConfigSections{
				File:     WebCloudConfig,
				Sections: []scaffold.Section{{Name: dataCacheClientsSection, Type: dataCacheClientsType}},
				Fragment: dataCacheClientsFragment,
			},
		},
	}
}
