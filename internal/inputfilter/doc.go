// Package inputfilter builds input filters from configuration and runs data
// through them.
//
// An [InputFilter] is an insertion-ordered collection of named entries. Each
// entry is either a leaf [*Input], holding a filter chain and a validator
// chain, or a nested [*InputFilter]. Input filters are usually not built by
// hand: [AbstractServiceFactory] reads the "input_filter_specs" section of
// the "config" container service and builds the input filter registered
// under a service name, and [NewPluginManager] installs that factory as the
// fallback of an input filter registry so that configured names resolve
// like explicitly registered ones.
//
// Typical use:
//
//	services := container.New()
//	services.Set(inputfilter.ConfigService, cfg)
//
//	manager := inputfilter.NewPluginManager(services, nil)
//	f, err := manager.Resolve("signup", nil)
//	if err != nil {
//		return err
//	}
//
//	f.SetData(payload)
//	if !f.IsValid() {
//		fmt.Println(f.Messages())
//	}
package inputfilter
