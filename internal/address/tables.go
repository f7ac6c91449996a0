package address

// directionals maps spelled-out and abbreviated directions to USPS form.
var directionals = map[string]string{
	"N": "N", "NORTH": "N",
	"S": "S", "SOUTH": "S",
	"E": "E", "EAST": "E",
	"W": "W", "WEST": "W",
	"NE": "NE", "NORTHEAST": "NE",
	"NW": "NW", "NORTHWEST": "NW",
	"SE": "SE", "SOUTHEAST": "SE",
	"SW": "SW", "SOUTHWEST": "SW",
}

// streetTypes maps common street suffixes to their USPS abbreviation.
var streetTypes = map[string]string{
	"ALLEY": "ALY", "ALY": "ALY",
	"AVENUE": "AVE", "AVE": "AVE", "AV": "AVE",
	"BEND": "BND", "BND": "BND",
	"BOULEVARD": "BLVD", "BLVD": "BLVD",
	"CIRCLE": "CIR", "CIR": "CIR",
	"COURT": "CT", "CT": "CT",
	"COVE": "CV", "CV": "CV",
	"CROSSING": "XING", "XING": "XING",
	"DRIVE": "DR", "DR": "DR",
	"EXPRESSWAY": "EXPY", "EXPY": "EXPY",
	"FREEWAY": "FWY", "FWY": "FWY",
	"HIGHWAY": "HWY", "HWY": "HWY",
	"HOLLOW": "HOLW", "HOLW": "HOLW",
	"LANE": "LN", "LN": "LN",
	"LOOP": "LOOP",
	"PARKWAY": "PKWY", "PKWY": "PKWY",
	"PASS": "PASS",
	"PATH": "PATH",
	"PIKE": "PIKE",
	"PLACE": "PL", "PL": "PL",
	"PLAZA": "PLZ", "PLZ": "PLZ",
	"POINT": "PT", "PT": "PT",
	"ROAD": "RD", "RD": "RD",
	"ROUTE": "RTE", "RTE": "RTE",
	"RUN": "RUN",
	"SQUARE": "SQ", "SQ": "SQ",
	"STREET": "ST", "ST": "ST", "STR": "ST",
	"TERRACE": "TER", "TER": "TER", "TERR": "TER",
	"TRACE": "TRCE", "TRCE": "TRCE",
	"TRAIL": "TRL", "TRL": "TRL",
	"TURNPIKE": "TPKE", "TPKE": "TPKE",
	"VIEW": "VW", "VW": "VW",
	"WALK": "WALK",
	"WAY": "WAY",
}

// unitDesignators are the secondary-unit words that precede a unit value.
var unitDesignators = map[string]struct{}{
	"APT": {}, "APARTMENT": {}, "UNIT": {}, "STE": {}, "SUITE": {},
	"BLDG": {}, "BUILDING": {}, "LOT": {}, "RM": {}, "ROOM": {},
	"FLOOR": {}, "SPC": {}, "SPACE": {}, "TRLR": {}, "DEPT": {},
}

var stateCodes = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {},
	"FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {},
	"KY": {}, "LA": {}, "ME": {}, "MD": {}, "MA": {}, "MI": {}, "MN": {}, "MS": {},
	"MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {}, "NJ": {}, "NM": {}, "NY": {},
	"NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {},
	"SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {},
	"WI": {}, "WY": {}, "DC": {}, "PR": {},
}

var stateNames = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
	"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE",
	"FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI", "IDAHO": "ID",
	"ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA", "KANSAS": "KS",
	"KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME", "MARYLAND": "MD",
	"MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN", "MISSISSIPPI": "MS",
	"MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV",
	"NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM", "NEW YORK": "NY",
	"NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH", "OKLAHOMA": "OK",
	"OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC",
	"SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT",
	"VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA", "WEST VIRGINIA": "WV",
	"WISCONSIN": "WI", "WYOMING": "WY",
}
