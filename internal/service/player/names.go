package player

var characterNames = []string{
	// Marvel
	"Iron Man",
	"Spider-Man",
	"Black Widow",
	"Thor",
	"Captain Marvel",
	// Disney
	"Mickey Mouse",
	"Donald Duck",
	"Simba",
	"Mulan",
	"Stitch",
	// DC Comics
	"Batman",
	"Wonder Woman",
	"Superman",
	"Flash",
	"Green Lantern",
	// Pixar
	"Buzz Lightyear",
	"Woody",
	"Nemo",
	"Wall-E",
	"Remy",
	// Animation
	"Pikachu",
	"Totoro",
	"Sonic",
	"Mario",
	"Kirby",
}

// CharacterNames lists the names handed to players who do not pick one.
func CharacterNames() []string {
	return append([]string(nil), characterNames...)
}
