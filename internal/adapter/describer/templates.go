package describer

import "musicrec/internal/domain"

// FallbackDescription is used for labels outside the fixed genre set.
const FallbackDescription = "Glazbena pjesma."

var templates = map[domain.Genre][]string{
	domain.Blues: {
		"Blues pjesma s tužnim melodijama.",
		"Spor ritam s emotivnim gitarskim solažama.",
		"Blues pjesma s melankoličnim vokalom i klasičnom gitarom.",
		"Instrumentalna blues pjesma s duševnim tonovima.",
		"Klasična blues pjesma sa solo gitarom.",
		"Tužna blues pjesma s nježnim tonovima i sporim tempom.",
	},
	domain.Classical: {
		"Klasična instrumentalna glazba s bogatim melodijama.",
		"Orkestralna glazba s elegantnim aranžmanima.",
		"Mirna klasična glazba s violinom.",
		"Simfonijska pjesma s klavirom i gudačima.",
		"Nježna klasična skladba s toplim tonovima.",
		"Melankolična klasična pjesma s tužnim harmonijama.",
	},
	domain.Jazz: {
		"Jazz pjesma s nježnim saksofonom.",
		"Instrumentalna jazz glazba s opuštenom atmosferom.",
		"Jazz s toplim tonovima i bogatom harmonijom.",
		"Improvizirana jazz pjesma s bubnjevima i bas linijom.",
		"Klasična jazz pjesma s pianom i brass sekcijom.",
		"Tužna jazz balada s emotivnim saksofonom.",
	},
	domain.Country: {
		"Country pjesma s akustičnim gitarama.",
		"Vesela country pjesma s pričom u stihovima.",
		"Country pjesma s bendžom i toplim glasom.",
		"Akustični country ritam s narativnim tekstom.",
		"Tradicionalna country pjesma s harmonikom.",
	},
	domain.Disco: {
		"Plesna disco pjesma s brzim ritmom.",
		"Retro disco hit s ritmičnim basom.",
		"Vesela disco pjesma s pjevnim refrenom.",
		"Disco pjesma s klasičnim 80s zvukom.",
		"Brza disco pjesma s funky gitarama.",
	},
	domain.HipHop: {
		"Trap pjesma s modernim beatovima.",
		"Hip-hop pjesma s ritmičnim beatom.",
		"Moderna hip-hop pjesma s urbanim stilom.",
		"Rap pjesma s izraženim vokalom i beatom.",
		"Hip-hop pjesma s agresivnim flowom.",
	},
	domain.Metal: {
		"Energična metal pjesma s distorzijom.",
		"Intenzivna metal pjesma s žestokim gitarama.",
		"Metal pjesma s brzim bubnjevima i vokalom.",
		"Teška metal pjesma s gitarskim rifovima.",
		"Metal pjesma s agresivnim beatom.",
	},
	domain.Pop: {
		"Vesela pop pjesma s modernom produkcijom.",
		"Pop hit s lako pamtljivim refrenom.",
		"Optimistična pop pjesma s ritmičnim beatom.",
		"Moderna pop pjesma s plesnim ritmom.",
		"Pop pjesma s vedrim tonom i zaraznom melodijom.",
	},
	domain.Reggae: {
		"Reggae pjesma s jamajčanskim ugođajem.",
		"Opuštena reggae pjesma s laganim beatom.",
		"Reggae s toplim vokalom i ritmom.",
		"Plesna reggae pjesma s bas linijom.",
		"Reggae pjesma s mirnom atmosferom.",
	},
	domain.Rock: {
		"Energična rock pjesma s izraženim električnim gitarama.",
		"Rock pjesma s brzim ritmom i bubnjevima.",
		"Rock pjesma s jakim vokalom i rifovima.",
		"Dinamična rock pjesma s distorzijom.",
		"Rock pjesma s klasičnim zvukom gitare.",
	},
}

// Templates returns the template pool for g, or nil for unknown labels.
func Templates(g domain.Genre) []string {
	return templates[g]
}
