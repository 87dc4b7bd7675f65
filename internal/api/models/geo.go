package models

// Region is a first-level administrative division.
type Region struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// City carries the exact coordinate strings used to fill the form.
type City struct {
	Name       string `json:"name"`
	RegionCode string `json:"regionCode"`
	Latitude   string `json:"lat"`
	Longitude  string `json:"long"`
}

// RegionList is returned by GET /v1/regions.
type RegionList struct {
	Items []Region `json:"items"`
}

// CityList is returned by GET /v1/regions/{code}/cities.
type CityList struct {
	Region Region `json:"region"`
	Items  []City `json:"items"`
}
