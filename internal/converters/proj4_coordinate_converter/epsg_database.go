package proj4_coordinate_converter

import "fmt"

// Builds the table of supported reference systems. UTM zones are generated, the rest are listed.
func loadEpsgDatabase() map[int]*epsgProjection {
	db := map[int]*epsgProjection{
		4326: {
			EpsgCode:    4326,
			Description: "WGS 84",
			Proj4:       "+proj=longlat +datum=WGS84 +no_defs",
		},
		4978: {
			EpsgCode:    4978,
			Description: "WGS 84 geocentric",
			Proj4:       "+proj=geocent +datum=WGS84 +units=m +no_defs",
		},
		3857: {
			EpsgCode:    3857,
			Description: "WGS 84 / Pseudo-Mercator",
			Proj4:       "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs",
		},
		4258: {
			EpsgCode:    4258,
			Description: "ETRS89",
			Proj4:       "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
		},
		27700: {
			EpsgCode:    27700,
			Description: "OSGB 1936 / British National Grid",
			Proj4:       "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy +towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs",
		},
		2193: {
			EpsgCode:    2193,
			Description: "NZGD2000 / New Zealand Transverse Mercator 2000",
			Proj4:       "+proj=tmerc +lat_0=0 +lon_0=173 +k=0.9996 +x_0=1600000 +y_0=10000000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
		},
	}

	for zone := 1; zone <= 60; zone++ {
		north := 32600 + zone
		db[north] = &epsgProjection{
			EpsgCode:    north,
			Description: fmt.Sprintf("WGS 84 / UTM zone %dN", zone),
			Proj4:       fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone),
		}
		south := 32700 + zone
		db[south] = &epsgProjection{
			EpsgCode:    south,
			Description: fmt.Sprintf("WGS 84 / UTM zone %dS", zone),
			Proj4:       fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", zone),
		}
	}

	for zone := 28; zone <= 38; zone++ {
		code := 25800 + zone
		db[code] = &epsgProjection{
			EpsgCode:    code,
			Description: fmt.Sprintf("ETRS89 / UTM zone %dN", zone),
			Proj4:       fmt.Sprintf("+proj=utm +zone=%d +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs", zone),
		}
	}

	return db
}

// Reports whether an EPSG code can be used for reprojection
func IsSupported(code int) bool {
	_, ok := loadEpsgDatabase()[code]
	return ok
}
