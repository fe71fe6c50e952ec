package model

// defaultTypes is the registered fleet the simulator ships with: population,
// battery kWh, consumption kWh/100km, AC kW, DC kW and connectors.
var defaultTypes = []CarType{
	{Name: "Audi e-tron", Population: 301, Capacity: 71.0, Efficiency: 14.7, MaxAC: 11.0, MaxDC: 120.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "BMW i3s", Population: 29, Capacity: 42.2, Efficiency: 15.8, MaxAC: 11.0, MaxDC: 50.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "BMW i3", Population: 253, Capacity: 42.2, Efficiency: 15.2, MaxAC: 11.0, MaxDC: 50.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Citroen C-Zero", Population: 13, Capacity: 16.0, Efficiency: 12.4, MaxAC: 3.7, MaxDC: 46.0, Connectors: []ConnectorType{Type2, CHAdeMO}},
	{Name: "Fiat 500e", Population: 71, Capacity: 42.0, Efficiency: 13.9, MaxAC: 11.0, MaxDC: 85.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Honda e", Population: 18, Capacity: 35.5, Efficiency: 17.1, MaxAC: 6.6, MaxDC: 56.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Hyundai Ioniq", Population: 465, Capacity: 58.0, Efficiency: 16.7, MaxAC: 11.0, MaxDC: 220.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Hyundai Kona", Population: 565, Capacity: 42.0, Efficiency: 13.7, MaxAC: 7.2, MaxDC: 50.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Jaguar I-Pace", Population: 164, Capacity: 90.0, Efficiency: 22.0, MaxAC: 11.0, MaxDC: 100.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Kia Niro", Population: 183, Capacity: 39.0, Efficiency: 15.2, MaxAC: 7.2, MaxDC: 50.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Kia Soul", Population: 62, Capacity: 33.0, Efficiency: 14.3, MaxAC: 6.6, MaxDC: 100.0, Connectors: []ConnectorType{Type2, CHAdeMO}},
	{Name: "Mazda MX-30", Population: 26, Capacity: 35.5, Efficiency: 19.0, MaxAC: 6.6, MaxDC: 40.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Mercedes B250e", Population: 45, Capacity: 31.0, Efficiency: 21.5, MaxAC: 9.6, MaxDC: 0.0, Connectors: []ConnectorType{Type2}},
	{Name: "Mercedes EQC", Population: 127, Capacity: 85.0, Efficiency: 22.1, MaxAC: 7.4, MaxDC: 110.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Mercedes EQV", Population: 16, Capacity: 90.0, Efficiency: 28.9, MaxAC: 11.0, MaxDC: 110.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Mini Cooper SE", Population: 62, Capacity: 32.6, Efficiency: 14.9, MaxAC: 11.0, MaxDC: 49.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Mitsubishi i-MiEV", Population: 14, Capacity: 16.0, Efficiency: 10.0, MaxAC: 3.6, MaxDC: 50.0, Connectors: []ConnectorType{Type2, CHAdeMO}},
	{Name: "Nissan e-NV200", Population: 37, Capacity: 40.0, Efficiency: 25.8, MaxAC: 6.6, MaxDC: 46.0, Connectors: []ConnectorType{Type2, CHAdeMO}},
	{Name: "Nissan Leaf", Population: 1213, Capacity: 40.0, Efficiency: 20.5, MaxAC: 3.6, MaxDC: 50.0, Connectors: []ConnectorType{Type2}},
	{Name: "Opel Corsa-e", Population: 43, Capacity: 50.0, Efficiency: 15.0, MaxAC: 11.0, MaxDC: 100.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Peugeot e-2008", Population: 39, Capacity: 50.0, Efficiency: 16.0, MaxAC: 7.4, MaxDC: 100.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Peugeot e-208", Population: 31, Capacity: 50.0, Efficiency: 16.2, MaxAC: 7.4, MaxDC: 100.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Peugeot iOn", Population: 11, Capacity: 16.0, Efficiency: 12.4, MaxAC: 3.7, MaxDC: 40.0, Connectors: []ConnectorType{Type2, CHAdeMO}},
	{Name: "Porsche Taycan", Population: 124, Capacity: 79.2, Efficiency: 20.8, MaxAC: 11.0, MaxDC: 225.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Renault Zoe", Population: 292, Capacity: 41.0, Efficiency: 15.5, MaxAC: 22.0, MaxDC: 0.0, Connectors: []ConnectorType{Type2}},
	{Name: "Seat Mii", Population: 271, Capacity: 36.8, Efficiency: 14.3, MaxAC: 7.2, MaxDC: 40.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Skoda Citigo-e", Population: 149, Capacity: 36.8, Efficiency: 14.3, MaxAC: 7.2, MaxDC: 40.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Smart EQ", Population: 15, Capacity: 17.6, Efficiency: 16.5, MaxAC: 22.0, MaxDC: 0.0, Connectors: []ConnectorType{Type2}},
	{Name: "Tesla Model 3", Population: 1541, Capacity: 68.5, Efficiency: 15.2, MaxAC: 11.0, MaxDC: 210.0, Connectors: []ConnectorType{Type2, Tesla}},
	{Name: "Tesla Model S", Population: 1440, Capacity: 87.5, Efficiency: 19.1, MaxAC: 16.5, MaxDC: 150.0, Connectors: []ConnectorType{Type2, Tesla}},
	{Name: "Tesla Model X", Population: 423, Capacity: 87.5, Efficiency: 22.5, MaxAC: 16.5, MaxDC: 150.0, Connectors: []ConnectorType{Type2, Tesla}},
	{Name: "Volkswagen e-Golf", Population: 487, Capacity: 35.8, Efficiency: 15.2, MaxAC: 7.2, MaxDC: 40.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Volkswagen ID.3", Population: 496, Capacity: 65.0, Efficiency: 14.6, MaxAC: 11.0, MaxDC: 87.5, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Volkswagen e-up!", Population: 371, Capacity: 36.8, Efficiency: 14.3, MaxAC: 7.2, MaxDC: 50.0, Connectors: []ConnectorType{Type2, CCS}},
	{Name: "Volvo XC40", Population: 154, Capacity: 78.0, Efficiency: 23.6, MaxAC: 11.0, MaxDC: 150.0, Connectors: []ConnectorType{Type2, CCS}},
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(defaultTypes)
	if err != nil {
		panic(err)
	}
	return c
}
