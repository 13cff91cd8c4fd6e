package config

import (
	"fmt"
	"sort"
)

// editable maps dotted keys to the string fields the `config set` command
// may change.
func (c *Config) editable() map[string]*string {
	return map[string]*string{
		"report.default_type": &c.Report.DefaultType,
		"report.ack_email":    &c.Report.AckEmail,

		"filer.tin_type":            &c.Filer.TINType,
		"filer.tin_value":           &c.Filer.TIN,
		"filer.state_ein":           &c.Filer.StateEIN,
		"filer.business_name_line1": &c.Filer.NameLine1,
		"filer.business_name_line2": &c.Filer.NameLine2,
		"filer.address_line1":       &c.Filer.Address.Line1,
		"filer.address_line2":       &c.Filer.Address.Line2,
		"filer.city":                &c.Filer.Address.City,
		"filer.state":               &c.Filer.Address.State,
		"filer.zip":                 &c.Filer.Address.ZIP,

		"consignor.name":          &c.Consignor.Name,
		"consignor.address_line1": &c.Consignor.Address.Line1,
		"consignor.address_line2": &c.Consignor.Address.Line2,
		"consignor.city":          &c.Consignor.Address.City,
		"consignor.state":         &c.Consignor.Address.State,
		"consignor.zip":           &c.Consignor.Address.ZIP,
		"consignor.permit_number": &c.Consignor.PermitNumber,

		"manufacturer.name":                         &c.Manufacturer.Name,
		"manufacturer.address_line1":                &c.Manufacturer.Address.Line1,
		"manufacturer.address_line2":                &c.Manufacturer.Address.Line2,
		"manufacturer.city":                         &c.Manufacturer.Address.City,
		"manufacturer.state":                        &c.Manufacturer.Address.State,
		"manufacturer.zip":                          &c.Manufacturer.Address.ZIP,
		"manufacturer.wine_permit_number":           &c.Manufacturer.WinePermitNumber,
		"manufacturer.common_carrier_permit_number": &c.Manufacturer.CommonCarrierPermitNumber,

		"paths.input_dir":   &c.Paths.InputDir,
		"paths.output_dir":  &c.Paths.OutputDir,
		"paths.archive_dir": &c.Paths.ArchiveDir,
		"paths.log_dir":     &c.Paths.LogDir,
		"paths.schema_dir":  &c.Paths.SchemaDir,
	}
}

// Keys returns the editable keys in sorted order.
func (c *Config) Keys() []string {
	m := c.editable()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of an editable key.
func (c *Config) Get(key string) (string, error) {
	p, ok := c.editable()[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return *p, nil
}

// Set changes an editable key and re-validates the configuration. On a
// validation failure the previous value is restored.
func (c *Config) Set(key, value string) error {
	p, ok := c.editable()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	old := *p
	*p = value
	if err := c.Validate(); err != nil {
		*p = old
		return err
	}
	return nil
}
