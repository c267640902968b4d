package seed

import "github.com/spec-kit/complaint-portal/internal/domain"

const (
	adminPassword = "Admin123!"
	staffPassword = "Staff123!"
	userPassword  = "User123!"
)

func staff(name, email, department, contact string) Account {
	return Account{Name: name, Email: email, Password: staffPassword, Role: domain.RoleStaff, Department: department, Contact: contact}
}

func resident(name, email, contact string) Account {
	return Account{Name: name, Email: email, Password: userPassword, Role: domain.RoleUser, Contact: contact}
}

// Demo is the dataset the seed command writes: one admin, staff across six departments,
// three residents and complaints in every status.
func Demo() Dataset {
	return Dataset{
		Accounts: []Account{
			{Name: "System Admin", Email: "admin@portal.com", Password: adminPassword, Role: domain.RoleAdmin, Contact: "9999999999"},

			staff("Robert Johnson", "robert.plumber@portal.com", "Plumbing", "5550100001"),
			staff("Sarah Williams", "sarah.plumber@portal.com", "Plumbing", "5550100002"),
			staff("Michael Brown", "michael.electric@portal.com", "Electrical", "5550100003"),
			staff("Emily Davis", "emily.electric@portal.com", "Electrical", "5550100004"),
			staff("James Wilson", "james.electric@portal.com", "Electrical", "5550100005"),
			staff("David Martinez", "david.facility@portal.com", "Facility", "5550100006"),
			staff("Lisa Anderson", "lisa.facility@portal.com", "Facility", "5550100007"),
			staff("Kevin Thompson", "kevin.it@portal.com", "IT", "5550100008"),
			staff("Anna Garcia", "anna.it@portal.com", "IT", "5550100009"),
			staff("Maria Santos", "maria.cleaning@portal.com", "Cleaning", "5550100010"),
			staff("Carlos Rivera", "carlos.cleaning@portal.com", "Cleaning", "5550100011"),
			staff("James Miller", "james.security@portal.com", "Security", "5550100012"),
			staff("Patricia Johnson", "patricia.security@portal.com", "Security", "5550100013"),

			resident("John Smith", "john.smith@example.com", "5550200001"),
			resident("Emma Watson", "emma.watson@example.com", "5550200002"),
			resident("Oliver Robinson", "oliver.robinson@example.com", "5550200003"),
		},
		Complaints: []Complaint{
			{
				Submitter: "john.smith@example.com", Title: "Kitchen sink draining slowly",
				Description: "Water takes several minutes to drain from the kitchen sink in unit 4B.",
				Category:    domain.CategoryPlumbing, Priority: domain.PriorityMedium, Location: "Building A, Unit 4B",
				Stage: domain.StatusResolved, Assignee: "robert.plumber@portal.com",
				Resolution: "Cleared a grease blockage in the trap and flushed the line.",
				Feedback:   "Quick and tidy work.", Rating: 5,
			},
			{
				Submitter: "emma.watson@example.com", Title: "Hallway lights flickering",
				Description: "The ceiling lights on the third floor hallway flicker every few seconds at night.",
				Category:    domain.CategoryElectrical, Priority: domain.PriorityHigh, Location: "Building B, Floor 3",
				Stage: domain.StatusResolved, Assignee: "michael.electric@portal.com",
				Resolution: "Replaced two failing ballasts and reseated the fixtures.",
				Feedback:   "Hallway is bright again, thank you.", Rating: 5,
			},
			{
				Submitter: "oliver.robinson@example.com", Title: "Broken window latch",
				Description: "The bedroom window latch is snapped and the window will not stay shut.",
				Category:    domain.CategoryFacility, Priority: domain.PriorityMedium, Location: "Building C, Unit 12",
				Stage: domain.StatusResolved, Assignee: "david.facility@portal.com",
				Resolution: "Fitted a new latch assembly.",
				Feedback:   "Fixed, took a couple of days.", Rating: 4,
			},
			{
				Submitter: "john.smith@example.com", Title: "Lobby floor left dirty",
				Description: "Mud has been tracked across the main lobby floor since the weekend.",
				Category:    domain.CategoryCleaning, Priority: domain.PriorityLow, Location: "Building A, Lobby",
				Stage: domain.StatusResolved, Assignee: "maria.cleaning@portal.com",
				Resolution: "Deep cleaned the lobby and added an entrance mat.",
				Feedback:   "Spotless now.", Rating: 5,
			},
			{
				Submitter: "emma.watson@example.com", Title: "Parking gate stuck open",
				Description: "The barrier at the staff car park entrance has been stuck in the raised position.",
				Category:    domain.CategorySecurity, Priority: domain.PriorityHigh, Location: "North car park",
				Stage: domain.StatusResolved, Assignee: "james.security@portal.com",
				Resolution: "Reset the gate controller and replaced the sensor.",
				Feedback:   "Gate works properly.", Rating: 5,
			},
			{
				Submitter: "oliver.robinson@example.com", Title: "Wi-Fi dropping in study room",
				Description: "The wireless connection in the shared study room drops every few minutes.",
				Category:    domain.CategoryOther, Priority: domain.PriorityMedium, Location: "Building B, Study Room 2",
				Stage: domain.StatusResolved, Assignee: "kevin.it@portal.com",
				Resolution: "Moved the access point to a less congested channel.",
				Feedback:   "Stable connection all week.", Rating: 5,
			},
			{
				Submitter: "john.smith@example.com", Title: "Leaking shower head",
				Description: "The shower head drips constantly even when the tap is fully closed.",
				Category:    domain.CategoryPlumbing, Priority: domain.PriorityLow, Location: "Building A, Unit 4B",
				Stage: domain.StatusResolved, Assignee: "sarah.plumber@portal.com",
				Resolution: "Replaced the cartridge and washer.",
				Feedback:   "No more dripping.", Rating: 5,
			},

			{
				Submitter: "emma.watson@example.com", Title: "Power outlet sparking",
				Description: "The outlet next to the desk sparks when anything is plugged in.",
				Category:    domain.CategoryElectrical, Priority: domain.PriorityCritical, Location: "Building B, Unit 7",
				Stage: domain.StatusInProgress, Assignee: "emily.electric@portal.com",
			},
			{
				Submitter: "oliver.robinson@example.com", Title: "Ceiling water stain spreading",
				Description: "A brown stain on the ceiling is growing after each rainfall.",
				Category:    domain.CategoryFacility, Priority: domain.PriorityHigh, Location: "Building C, Unit 15",
				Stage: domain.StatusInProgress, Assignee: "lisa.facility@portal.com",
			},
			{
				Submitter: "john.smith@example.com", Title: "Overflowing recycling bins",
				Description: "The recycling bins behind building A have not been emptied in a week.",
				Category:    domain.CategoryCleaning, Priority: domain.PriorityMedium, Location: "Building A, Rear yard",
				Stage: domain.StatusInProgress, Assignee: "carlos.cleaning@portal.com",
			},

			{
				Submitter: "emma.watson@example.com", Title: "Security camera offline",
				Description: "The camera covering the bike storage area shows no feed on the monitor.",
				Category:    domain.CategorySecurity, Priority: domain.PriorityHigh, Location: "Bike storage",
				Stage: domain.StatusAssigned, Assignee: "patricia.security@portal.com",
			},
			{
				Submitter: "oliver.robinson@example.com", Title: "Printer queue stuck",
				Description: "Jobs sent to the shared printer sit in the queue and never print.",
				Category:    domain.CategoryOther, Priority: domain.PriorityLow, Location: "Building B, Study Room 2",
				Stage: domain.StatusAssigned, Assignee: "anna.it@portal.com",
			},
			{
				Submitter: "john.smith@example.com", Title: "Exterior light not working",
				Description: "The light above the side entrance of building A stays off at night.",
				Category:    domain.CategoryElectrical, Priority: domain.PriorityMedium, Location: "Building A, Side entrance",
				Stage: domain.StatusAssigned, Assignee: "james.electric@portal.com",
			},

			{
				Submitter: "emma.watson@example.com", Title: "Toilet keeps running",
				Description: "The toilet cistern refills every few minutes and never fully stops.",
				Category:    domain.CategoryPlumbing, Priority: domain.PriorityMedium, Location: "Building B, Unit 7",
			},
			{
				Submitter: "oliver.robinson@example.com", Title: "Loose stair handrail",
				Description: "The handrail on the east stairwell wobbles and is coming away from the wall.",
				Category:    domain.CategoryFacility, Priority: domain.PriorityHigh, Location: "Building C, East stairwell",
			},
			{
				Submitter: "john.smith@example.com", Title: "Pest sighting in basement",
				Description: "Several mice have been seen near the storage lockers in the basement.",
				Category:    domain.CategoryCleaning, Priority: domain.PriorityHigh, Location: "Building A, Basement",
			},
			{
				Submitter: "emma.watson@example.com", Title: "Door access card rejected",
				Description: "My access card stopped opening the main entrance door yesterday evening.",
				Category:    domain.CategorySecurity, Priority: domain.PriorityMedium, Location: "Building B, Main entrance",
			},
			{
				Submitter: "oliver.robinson@example.com", Title: "Noisy ventilation fan",
				Description: "The bathroom extractor fan makes a loud grinding noise when switched on.",
				Category:    domain.CategoryOther, Priority: domain.PriorityLow, Location: "Building C, Unit 12",
			},
		},
	}
}

// Credentials lists the demo logins by role, for printing after a run.
func Credentials(data Dataset) map[domain.Role][]string {
	out := map[domain.Role][]string{}
	for _, a := range data.Accounts {
		out[a.Role] = append(out[a.Role], a.Email+" / "+a.Password)
	}
	return out
}
